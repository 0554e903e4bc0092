// validator_test.go
package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/integrations/sqlstore"
	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/pkg/schema"
)

var clock = randr.WithClock(func() time.Time {
	return time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC)
})

// memStore keeps inserted lists in memory. mutate, when set, alters the
// values of a fetched row before it is returned.
type memStore struct {
	rows      map[[2]string]params.List
	mutate    func(values []any)
	insertErr error
	mem       memory.Allocator
}

func newMemStore() *memStore {
	return &memStore{rows: map[[2]string]params.List{}, mem: memory.NewGoAllocator()}
}

func (m *memStore) CreateTable(context.Context) error { return nil }
func (m *memStore) Dialect() schema.Dialect           { return schema.SQLite }
func (m *memStore) Close() error                      { return nil }

func (m *memStore) Insert(_ context.Context, list params.List) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	pid, _ := list.Get("payment_id")
	aid, _ := list.Get("attempt_id")
	m.rows[[2]string{pid.Value.(string), aid.Value.(string)}] = list
	return nil
}

func (m *memStore) Fetch(_ context.Context, pid, aid string) (arrow.Record, error) {
	list, ok := m.rows[[2]string{pid, aid}]
	if !ok {
		return nil, integrations.ErrNotFound
	}
	values := list.Values()
	if m.mutate != nil {
		m.mutate(values)
	}
	return params.RowsToRecord(m.mem, attempt.Schema(), [][]any{values})
}

func TestRunRoundTrip(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store, randr.NewSeeded(1, clock), nil)
	collector, err := metrics.NewCollector("test", "")
	require.NoError(t, err)
	v.Recorder = collector

	res, err := v.Run(context.Background())
	require.NoError(t, err)
	defer res.Release()

	rep := res.Report
	require.NotNil(t, rep.RoundTrip)
	assert.True(t, rep.RoundTrip.Status)
	assert.True(t, rep.Passed())
	assert.Equal(t, attempt.NumColumns, rep.RoundTrip.Columns)
	assert.Equal(t, res.Attempt.PaymentID, rep.RoundTrip.PaymentID)
	assert.Equal(t, "canonical", rep.EnumPolicy)
	assert.Equal(t, "sqlite", rep.Store)

	var steps []string
	for _, st := range rep.Steps {
		steps = append(steps, st.Step)
	}
	assert.Equal(t, []string{"generate", "encode", "create_table", "insert", "fetch", "compare"}, steps)
	assert.Equal(t, int64(1), res.Row.NumRows())
	assert.Equal(t, 6, mustCount(t, collector))
}

func TestRunDetectsMismatch(t *testing.T) {
	store := newMemStore()
	store.mutate = func(values []any) {
		values[4] = values[4].(int64) + 1 // amount
		values[7] = nil                   // connector
	}
	v := NewValidator(store, randr.NewSeeded(2, clock, randr.WithPresence(func() bool { return true })), nil)

	res, err := v.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoundTrip))
	defer res.Release()

	rt := res.Report.RoundTrip
	require.NotNil(t, rt)
	assert.False(t, rt.Status)
	require.Len(t, rt.Mismatches, 2)
	assert.Equal(t, "amount", rt.Mismatches[0].Column)
	assert.Equal(t, "value", rt.Mismatches[0].Kind)
	assert.Equal(t, "connector", rt.Mismatches[1].Column)
	assert.Equal(t, "null", rt.Mismatches[1].Kind)
	assert.False(t, res.Report.Passed())
}

func TestRunWrongKey(t *testing.T) {
	store := newMemStore()
	store.mutate = func(values []any) { values[0] = "someone_else" }
	v := NewValidator(store, randr.NewSeeded(3, clock), nil)

	res, err := v.Run(context.Background())
	require.Error(t, err)
	defer res.Release()
	assert.Contains(t, err.Error(), "someone_else")
}

func TestRunStepFailure(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("disk full")
	v := NewValidator(store, randr.NewSeeded(4, clock), nil)

	res, err := v.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, res.Row)
	assert.Nil(t, res.Report.RoundTrip)

	last := res.Report.Steps[len(res.Report.Steps)-1]
	assert.Equal(t, "insert", last.Step)
	assert.Equal(t, "disk full", last.Error)
	assert.False(t, res.Report.Passed())
}

func TestRunExhaustedEntropy(t *testing.T) {
	r := randr.New(randr.ReaderSource(failingReader{}), clock)
	v := NewValidator(newMemStore(), r, nil)

	res, err := v.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, randr.ErrEntropyExhausted)
	assert.Equal(t, "generate", res.Report.Steps[0].Step)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, os.ErrClosed }

func TestRunConstructorHook(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store, randr.NewSeeded(5, clock), nil)
	v.Hooks = []randr.Hook[attempt.PaymentAttempt]{
		randr.WithTransform(func(a attempt.PaymentAttempt) attempt.PaymentAttempt {
			a.Amount = 500
			return a
		}),
	}

	res, err := v.Run(context.Background())
	require.NoError(t, err)
	defer res.Release()
	assert.Equal(t, int64(500), res.Attempt.Amount)
}

func TestRunSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, schema.SQLite, integrations.WithPath(filepath.Join(t.TempDir(), "rt.db")))
	require.NoError(t, err)
	defer store.Close()

	for seed := uint64(10); seed < 15; seed++ {
		v := NewValidator(store, randr.NewSeeded(seed, clock), nil)
		v.Factory = attempt.Factory{EnumPolicy: randr.UniformSample}
		res, err := v.Run(ctx)
		require.NoError(t, err, "seed %d", seed)
		assert.True(t, res.Report.RoundTrip.Status)
		assert.Equal(t, "uniform", res.Report.EnumPolicy)
		res.Release()
	}
}

func TestGenerateReports(t *testing.T) {
	v := NewValidator(newMemStore(), randr.NewSeeded(6, clock), nil)
	res, err := v.Run(context.Background())
	require.NoError(t, err)
	defer res.Release()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "run.json")
	htmlPath := filepath.Join(dir, "run.html")
	require.NoError(t, v.GenerateReports(res.Report, jsonPath, htmlPath))

	_, err = os.Stat(jsonPath)
	assert.NoError(t, err)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), res.Report.RunID)
}

func mustCount(t *testing.T, c *metrics.Collector) int {
	t.Helper()
	n, err := testutil.GatherAndCount(c.Registry(), "attemptgen_step_total")
	require.NoError(t, err)
	return n
}
