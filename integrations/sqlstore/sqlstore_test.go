package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/internal/core"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/pkg/schema"
)

var clock = randr.WithClock(func() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
})

func encoded(t *testing.T, r *randr.Rand) params.List {
	t.Helper()
	a, err := attempt.Factory{}.New(r)
	require.NoError(t, err)
	list, err := params.Encode(&a, nil)
	require.NoError(t, err)
	return list
}

func key(t *testing.T, list params.List) (string, string) {
	t.Helper()
	pid, ok := list.Get("payment_id")
	require.True(t, ok)
	aid, ok := list.Get("attempt_id")
	require.True(t, ok)
	return pid.Value.(string), aid.Value.(string)
}

func TestSQLiteRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ctx := context.Background()
	store, err := Open(ctx, schema.SQLite, integrations.WithAllocator(mem))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, schema.SQLite, store.Dialect())
	require.NoError(t, store.CreateTable(ctx))
	// Creating the table again is a no-op.
	require.NoError(t, store.CreateTable(ctx))

	for seed, presence := range map[uint64]bool{42: true, 43: false} {
		r := randr.NewSeeded(seed, clock, randr.WithPresence(func() bool { return presence }))
		list := encoded(t, r)
		require.NoError(t, store.Insert(ctx, list))

		want, err := params.ToRecord(mem, attempt.Schema(), list)
		require.NoError(t, err)

		pid, aid := key(t, list)
		got, err := store.Fetch(ctx, pid, aid)
		require.NoError(t, err)

		assert.NoError(t, core.Comparer{}.Compare(want, got))
		want.Release()
		got.Release()
	}
}

func TestSQLiteMixedPresence(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, schema.SQLite, integrations.WithTable("attempts"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.CreateTable(ctx))

	r := randr.NewSeeded(7, clock)
	for i := 0; i < 20; i++ {
		list := encoded(t, r)
		require.NoError(t, store.Insert(ctx, list))

		pid, aid := key(t, list)
		got, err := store.Fetch(ctx, pid, aid)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.NumRows())
		for _, p := range list {
			assert.Equal(t, p.IsNull(), got.Column(p.Index).IsNull(0), p.Column)
		}
		got.Release()
	}
}

func TestSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, schema.SQLite, integrations.WithPath(filepath.Join(t.TempDir(), "attempts.db")))
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(ctx))

	_, err = store.Fetch(ctx, "missing", "missing")
	assert.ErrorIs(t, err, integrations.ErrNotFound)

	list := encoded(t, randr.NewSeeded(1, clock))
	require.NoError(t, store.Insert(ctx, list))
	// Same primary key twice.
	assert.Error(t, store.Insert(ctx, list))

	assert.ErrorIs(t, store.Insert(ctx, list[:10]), params.ErrSchemaMismatch)

	require.NoError(t, store.Close())
	assert.Error(t, store.Close())
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, schema.Postgres)
	assert.ErrorContains(t, err, "unsupported dialect")

	_, err = Open(ctx, schema.MySQL, integrations.WithPath("not a dsn"))
	assert.ErrorContains(t, err, "mysql dsn")

	_, err = Open(ctx, schema.SQLite, integrations.WithTable("1bad"))
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	kinds := integrations.Kinds()
	for _, k := range []string{"sqlite", "mysql", "mssql"} {
		assert.Contains(t, kinds, k)
	}

	store, err := integrations.Open(context.Background(), "sqlite")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
