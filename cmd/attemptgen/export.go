package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/pkg/core"
	"github.com/TFMV/attemptgen/pkg/readers"
	"github.com/TFMV/attemptgen/pkg/writers"
	"github.com/TFMV/attemptgen/report"
)

type exportOptions struct {
	output      string
	format      string
	count       int64
	batchSize   int64
	compression string
}

func newExportCommand(a *app) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write generated attempts to a Parquet, Arrow IPC or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (parquet, arrow, json); detected from the extension when empty")
	cmd.Flags().Int64VarP(&opts.count, "count", "n", 1000, "Number of records to export")
	cmd.Flags().Int64VarP(&opts.batchSize, "batch-size", "b", core.DefaultBatchSize, "Records per batch")
	cmd.Flags().StringVar(&opts.compression, "compression", "snappy", "Parquet compression (snappy, zstd, gzip, none)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(ctx context.Context, a *app, opts *exportOptions, out io.Writer) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	format := opts.format
	if format == "" {
		format = readers.DetectType(opts.output)
		if format == "" && strings.HasSuffix(strings.ToLower(opts.output), ".json") {
			format = "json"
		}
		if format == "" {
			return fmt.Errorf("cannot detect the format of %s; pass --format", opts.output)
		}
	}

	var seed *uint64
	if s := a.cfg.Generator.Seed; s != 0 {
		seed = &s
	}
	src, err := readers.DefaultFactory.Create(core.ReaderConfig{
		Type:       "attempts",
		Count:      opts.count,
		Seed:       seed,
		EnumPolicy: a.cfg.Generator.EnumPolicy,
		BatchSize:  opts.batchSize,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := writers.DefaultFactory.Create(core.WriterConfig{Type: format, Path: opts.output, Compression: opts.compression})
	if err != nil {
		return err
	}
	rows, err := writers.Copy(ctx, dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("export to %s: %w", opts.output, err)
	}

	a.log.Info("Export complete", zap.String("path", opts.output), zap.String("format", format), zap.Int64("rows", rows))
	fmt.Fprintf(out, "wrote %d records to %s (%s)\n", rows, opts.output, format)
	return nil
}

type inspectOptions struct {
	limit int64
}

func newInspectCommand(a *app) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print rows of an exported Parquet or Arrow IPC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int64VarP(&opts.limit, "limit", "l", 1, "Number of rows to print")
	return cmd
}

func runInspect(ctx context.Context, path string, opts *inspectOptions, out io.Writer) error {
	if opts.limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", opts.limit)
	}
	typ := readers.DetectType(path)
	if typ == "" {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	r, err := readers.DefaultFactory.Create(core.ReaderConfig{Type: typ, Path: path, BatchSize: opts.limit})
	if err != nil {
		return err
	}
	defer r.Close()

	rec, err := r.Read(ctx)
	if err == io.EOF {
		fmt.Fprintln(out, "no rows")
		return nil
	}
	if err != nil {
		return err
	}
	defer rec.Release()

	if rec.NumRows() > opts.limit {
		sliced := rec.NewSlice(0, opts.limit)
		defer sliced.Release()
		rec = sliced
	}
	fmt.Fprintf(out, "%s: %d columns\n\n", path, rec.NumCols())
	return report.PrintRow(out, rec)
}
