// Package validation runs the write-then-read round trip of a generated
// payment attempt against a store.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/internal/core"
	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/report"
)

// ErrRoundTrip is returned when the stored row differs from what was bound.
var ErrRoundTrip = errors.New("stored row differs from the bound parameters")

// Validator manages the configuration and round-trip logic.
type Validator struct {
	Store   integrations.Store
	Factory attempt.Factory
	Rand    *randr.Rand
	Hooks   []randr.Hook[attempt.PaymentAttempt]

	// Logger for structured logging.
	Logger *zap.Logger

	// Recorder receives step counts and durations.
	Recorder metrics.Recorder

	// Allocator builds the expected record; defaults to the Go allocator.
	Allocator memory.Allocator

	// Report generators.
	JSONReportGenerator report.ReportGenerator
	HTMLReportGenerator report.ReportGenerator
}

// NewValidator constructs a new Validator instance.
func NewValidator(store integrations.Store, r *randr.Rand, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		Store:               store,
		Rand:                r,
		Logger:              logger,
		Recorder:            metrics.Nop{},
		Allocator:           memory.DefaultAllocator,
		JSONReportGenerator: &report.JSONReportGenerator{},
		HTMLReportGenerator: &report.HTMLReportGenerator{},
	}
}

// Result is the outcome of one round trip. Row is the fetched record; the
// caller releases it with Release.
type Result struct {
	Report  metrics.RunReport
	Attempt attempt.PaymentAttempt
	Params  params.List
	Row     arrow.Record
}

// Release frees the fetched row.
func (r *Result) Release() {
	if r.Row != nil {
		r.Row.Release()
		r.Row = nil
	}
}

// storedKey is decoded from the fetched row to confirm the store answered
// for the requested attempt.
type storedKey struct {
	PaymentID string `arrow:"payment_id"`
	AttemptID string `arrow:"attempt_id"`
}

// step times fn, then records and logs the outcome.
func (v *Validator) step(rep *metrics.RunReport, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)

	rep.AddStep(name, d, err)
	v.Recorder.RecordStep(name, err, d)
	if err != nil {
		v.Logger.Error("Step failed", zap.String("step", name), zap.Duration("duration", d), zap.Error(err))
	} else {
		v.Logger.Debug("Step completed", zap.String("step", name), zap.Duration("duration", d))
	}
	return err
}

// Run generates one attempt, writes it, reads it back by key and compares
// every column. The report is returned even when a step fails.
func (v *Validator) Run(ctx context.Context) (*Result, error) {
	rep := metrics.NewRunReport(v.Factory.EnumPolicy.String())
	rep.Store = string(v.Store.Dialect())
	res := &Result{}
	v.Logger.Info("Starting round trip", zap.String("run_id", rep.RunID), zap.String("store", rep.Store))

	err := v.run(ctx, rep, res)
	rep.Finish()
	res.Report = *rep

	if err != nil {
		v.Logger.Error("Round trip failed", zap.String("run_id", rep.RunID), zap.Error(err))
		return res, err
	}
	v.Logger.Info("Round trip complete",
		zap.String("run_id", rep.RunID),
		zap.Bool("status", rep.RoundTrip.Status),
		zap.Duration("duration", rep.Duration))
	return res, nil
}

func (v *Validator) run(ctx context.Context, rep *metrics.RunReport, res *Result) error {
	if err := v.step(rep, "generate", func() error {
		a, err := v.Factory.New(v.Rand, v.Hooks...)
		res.Attempt = a
		return err
	}); err != nil {
		return err
	}
	v.Recorder.RecordGenerated(1)

	if err := v.step(rep, "encode", func() error {
		list, err := params.Encode(&res.Attempt, nil)
		res.Params = list
		return err
	}); err != nil {
		return err
	}

	if err := v.step(rep, "create_table", func() error {
		return v.Store.CreateTable(ctx)
	}); err != nil {
		return err
	}

	if err := v.step(rep, "insert", func() error {
		return v.Store.Insert(ctx, res.Params)
	}); err != nil {
		return err
	}

	if err := v.step(rep, "fetch", func() error {
		row, err := v.Store.Fetch(ctx, res.Attempt.PaymentID, res.Attempt.AttemptID)
		res.Row = row
		return err
	}); err != nil {
		return err
	}

	return v.step(rep, "compare", func() error {
		rt, err := v.compare(res)
		rep.RoundTrip = rt
		return err
	})
}

func (v *Validator) compare(res *Result) (*metrics.RoundTripResult, error) {
	rt := &metrics.RoundTripResult{
		PaymentID:   res.Attempt.PaymentID,
		AttemptID:   res.Attempt.AttemptID,
		Columns:     len(res.Params),
		NullColumns: res.Params.NullCount(),
		Fingerprint: strconv.FormatUint(res.Params.Fingerprint(), 16),
	}

	if res.Row.NumRows() != 1 {
		return rt, fmt.Errorf("fetch returned %d rows, want 1", res.Row.NumRows())
	}
	key, err := core.NewReader[storedKey](res.Row).Value(0)
	if err != nil {
		return rt, fmt.Errorf("decode stored key: %w", err)
	}
	if key.PaymentID != rt.PaymentID || key.AttemptID != rt.AttemptID {
		return rt, fmt.Errorf("fetched (%s, %s), asked for (%s, %s)", key.PaymentID, key.AttemptID, rt.PaymentID, rt.AttemptID)
	}

	want, err := params.ToRecord(v.Allocator, res.Row.Schema(), res.Params)
	if err != nil {
		return rt, err
	}
	defer want.Release()

	for _, m := range (core.Comparer{}).Diff(want, res.Row) {
		rt.Mismatches = append(rt.Mismatches, metrics.ColumnMismatch{
			Column: m.Column,
			Kind:   string(m.Kind),
			Want:   fmt.Sprint(m.Want),
			Got:    fmt.Sprint(m.Got),
		})
	}
	rt.Status = len(rt.Mismatches) == 0
	if !rt.Status {
		return rt, fmt.Errorf("%w: %d columns", ErrRoundTrip, len(rt.Mismatches))
	}
	return rt, nil
}

// GenerateReports creates JSON and HTML reports and saves them to the specified file paths.
func (v *Validator) GenerateReports(run metrics.RunReport, jsonPath, htmlPath string) error {
	if err := v.JSONReportGenerator.SaveReportToFile(run, jsonPath); err != nil {
		return err
	}
	return v.HTMLReportGenerator.SaveReportToFile(run, htmlPath)
}
