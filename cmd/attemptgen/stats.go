package main

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/report"
)

type statsOptions struct {
	samples int
	workers int
	save    string
	strict  bool
}

func newStatsCommand(a *app) *cobra.Command {
	opts := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Measure how often each optional column is present",
		Long: `stats generates --samples records across --workers and prints, for each of
the 48 optional columns, how often it was present and the chi-square
statistic of that rate against a fair coin. Columns at or above the critical
value for p = 0.0001 are flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&opts.samples, "samples", "n", 10000, "Number of records to generate")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "Number of generator workers")
	cmd.Flags().StringVar(&opts.save, "save", "", "Save the run report as JSON to this path")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any column is at or above the critical value")
	return cmd
}

func runStats(cmd *cobra.Command, a *app, opts *statsOptions, out io.Writer) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// Presence runs are always seeded so they can be replayed.
	seed := a.cfg.Generator.Seed
	if seed == 0 {
		seed = randr.NewSecure().Uint64()
	}

	rec, _, err := a.recorder()
	if err != nil {
		return err
	}

	run := metrics.NewRunReport(a.cfg.Generator.EnumPolicy)
	run.Seed = &seed
	start := time.Now()
	stats, err := metrics.CollectPresence(ctx, a.factory(), seed, opts.samples, opts.workers)
	run.AddStep("presence", time.Since(start), err)
	rec.RecordStep("presence", err, time.Since(start))
	run.Finish()
	if err != nil {
		return err
	}
	run.Presence = &stats
	rec.RecordGenerated(stats.Samples)
	rec.RecordPresence(stats)
	a.log.Debug("Presence collected", zap.Uint64("seed", seed), zap.Int("samples", stats.Samples), zap.Float64("max_chi2", stats.MaxChiSquare()))

	if err := report.PrintPresence(out, *run.Presence); err != nil {
		return err
	}
	if opts.save != "" {
		if err := (&metrics.JSONMetricsStore{FilePath: opts.save}).SaveWithContext(ctx, *run); err != nil {
			return err
		}
	}
	if err := rec.Flush(); err != nil {
		return err
	}

	if failing := run.Presence.Failing(metrics.CriticalChiSquare); opts.strict && len(failing) > 0 {
		return fmt.Errorf("%d optional columns fail the presence test (seed %d)", len(failing), seed)
	}
	return nil
}
