package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// -----------------------------
// Run Types & Metadata
// -----------------------------

// StepTiming records how long one step of a run took.
type StepTiming struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// ColumnMismatch is a column whose stored value differs from what was bound.
type ColumnMismatch struct {
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Want   string `json:"want"`
	Got    string `json:"got"`
}

// RoundTripResult describes one write-then-read of a generated attempt.
type RoundTripResult struct {
	PaymentID   string           `json:"payment_id"`
	AttemptID   string           `json:"attempt_id"`
	Columns     int              `json:"columns"`
	NullColumns int              `json:"null_columns"`
	Fingerprint string           `json:"fingerprint"`
	Mismatches  []ColumnMismatch `json:"mismatches"`
	Status      bool             `json:"status"`
}

// RunReport aggregates everything one CLI or API run measured.
type RunReport struct {
	RunID      string           `json:"run_id"`
	Store      string           `json:"store,omitempty"`
	Table      string           `json:"table,omitempty"`
	Seed       *uint64          `json:"seed,omitempty"`
	EnumPolicy string           `json:"enum_policy"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    time.Time        `json:"end_time"`
	Duration   time.Duration    `json:"duration"`
	Steps      []StepTiming     `json:"steps"`
	RoundTrip  *RoundTripResult `json:"round_trip,omitempty"`
	Presence   *PresenceStats   `json:"presence,omitempty"`
}

// NewRunReport starts a report with a fresh run id.
func NewRunReport(enumPolicy string) *RunReport {
	return &RunReport{
		RunID:      uuid.NewString(),
		EnumPolicy: enumPolicy,
		StartTime:  time.Now().UTC(),
	}
}

// AddStep appends a step timing.
func (r *RunReport) AddStep(step string, d time.Duration, err error) {
	st := StepTiming{Step: step, Duration: d}
	if err != nil {
		st.Error = err.Error()
	}
	r.Steps = append(r.Steps, st)
}

// Finish stamps the end time and total duration.
func (r *RunReport) Finish() {
	r.EndTime = time.Now().UTC()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Passed reports whether every recorded check succeeded.
func (r *RunReport) Passed() bool {
	for _, st := range r.Steps {
		if st.Error != "" {
			return false
		}
	}
	if r.RoundTrip != nil && !r.RoundTrip.Status {
		return false
	}
	if r.Presence != nil && len(r.Presence.Failing(CriticalChiSquare)) > 0 {
		return false
	}
	return true
}

// -----------------------------
// Metrics Storage
// -----------------------------

// MetricsStore abstracts run report storage.
type MetricsStore interface {
	Save(run RunReport) error
	SaveWithContext(ctx context.Context, run RunReport) error
}

// JSONMetricsStore stores reports as JSON, on stdout when FilePath is empty.
type JSONMetricsStore struct {
	FilePath string
}

func (j *JSONMetricsStore) Save(run RunReport) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func (j *JSONMetricsStore) SaveWithContext(ctx context.Context, run RunReport) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(run)
	}
}

// Load reads a report written by Save.
func (j *JSONMetricsStore) Load() (RunReport, error) {
	var run RunReport
	data, err := os.ReadFile(j.FilePath)
	if err != nil {
		return run, err
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("decode run report %s: %w", j.FilePath, err)
	}
	return run, nil
}
