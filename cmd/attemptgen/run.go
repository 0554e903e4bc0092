package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/report"
	"github.com/TFMV/attemptgen/validation"
)

type runOptions struct {
	jsonReport string
	htmlReport string
	quiet      bool
}

func newRunCommand(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate one attempt, write it to the store and read it back",
		Long: `run creates the table if needed, generates one payment attempt, binds its
58 parameters to an INSERT, fetches the row by (payment_id, attempt_id) and
compares every column with what was bound. The fetched row is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoundTrip(cmd.Context(), a, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.jsonReport, "report-json", "", "Write the run report as JSON to this path")
	cmd.Flags().StringVar(&opts.htmlReport, "report-html", "", "Write the run report as HTML to this path")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print the summary line")
	return cmd
}

func runRoundTrip(ctx context.Context, a *app, opts *runOptions, out, progress io.Writer) error {
	ctx, stop := signalContext(ctx)
	defer stop()
	if t := a.cfg.Store.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Store.Type, err)
	}
	defer store.Close()

	rec, _, err := a.recorder()
	if err != nil {
		return err
	}

	r, seed := a.rand()
	v := validation.NewValidator(store, r, a.log)
	v.Factory = a.factory()
	v.Recorder = rec

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(progress))
	s.Suffix = " round trip against " + a.cfg.Store.Type
	s.Start()
	res, runErr := v.Run(ctx)
	s.Stop()
	defer res.Release()

	res.Report.Seed = seed
	res.Report.Table = a.cfg.Store.Table

	if runErr == nil && !opts.quiet {
		if err := report.PrintRow(out, res.Row); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	printSummary(out, res)

	if opts.jsonReport != "" {
		if err := v.JSONReportGenerator.SaveReportToFile(res.Report, opts.jsonReport); err != nil {
			return err
		}
	}
	if opts.htmlReport != "" {
		if err := v.HTMLReportGenerator.SaveReportToFile(res.Report, opts.htmlReport); err != nil {
			return err
		}
	}
	if err := rec.Flush(); err != nil {
		a.log.Warn("Metrics flush failed", zap.Error(err))
	}
	return runErr
}

func printSummary(out io.Writer, res *validation.Result) {
	rep := res.Report
	status := "FAIL"
	if rep.Passed() {
		status = "PASS"
	}
	fmt.Fprintf(out, "round trip %s run=%s store=%s policy=%s", status, rep.RunID, rep.Store, rep.EnumPolicy)
	if rep.Seed != nil {
		fmt.Fprintf(out, " seed=%d", *rep.Seed)
	}
	rt := rep.RoundTrip
	if rt != nil {
		fmt.Fprintf(out, " columns=%d nulls=%d fingerprint=%s", rt.Columns, rt.NullColumns, rt.Fingerprint)
	}
	fmt.Fprintf(out, " duration=%s\n", rep.Duration.Round(time.Microsecond))
	for _, st := range rep.Steps {
		if st.Error != "" {
			fmt.Fprintf(out, "  step %s failed: %s\n", st.Step, st.Error)
		}
	}
	if rt != nil {
		for _, m := range rt.Mismatches {
			fmt.Fprintf(out, "  %s %s: bound %s, stored %s\n", m.Column, m.Kind, m.Want, m.Got)
		}
	}
}
