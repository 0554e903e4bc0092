package core

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparerEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := buildRecord(t, mem, []string{"p1", "p2"}, []int64{1, 2}, []int16{5, 0}, []bool{true, false})
	defer a.Release()
	b := buildRecord(t, mem, []string{"p1", "p2"}, []int64{1, 2}, []int16{5, 9}, []bool{true, false})
	defer b.Release()

	// The value behind a null slot does not matter.
	assert.NoError(t, Comparer{}.Compare(a, b))
	assert.Empty(t, Comparer{}.Diff(a, b))
}

func TestComparerMismatches(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	want := buildRecord(t, mem, []string{"p1", "p2"}, []int64{1, 2}, []int16{5, 6}, nil)
	defer want.Release()

	// Test value mismatch
	got := buildRecord(t, mem, []string{"p1", "p2"}, []int64{1, 3}, []int16{5, 6}, nil)
	defer got.Release()
	err := Comparer{}.Compare(want, got)
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, MismatchValue, mm.Kind)
	assert.Equal(t, "amount", mm.Column)
	assert.Equal(t, 1, mm.Row)
	assert.Equal(t, int64(2), mm.Want)
	assert.Equal(t, int64(3), mm.Got)

	// Test null mismatch
	nulls := buildRecord(t, mem, []string{"p1", "p2"}, []int64{1, 2}, []int16{5, 6}, []bool{true, false})
	defer nulls.Release()
	err = Comparer{}.Compare(want, nulls)
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, MismatchNull, mm.Kind)
	assert.Equal(t, "count", mm.Column)
	assert.Nil(t, mm.Got)

	// Restricting columns skips the difference
	assert.NoError(t, Comparer{Columns: []string{"payment_id", "amount"}}.Compare(want, nulls))

	// Test row count mismatch
	short := buildRecord(t, mem, []string{"p1"}, []int64{1}, []int16{5}, nil)
	defer short.Release()
	err = Comparer{}.Compare(want, short)
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, MismatchRows, mm.Kind)

	// Test missing column
	err = Comparer{Columns: []string{"nope"}}.Compare(want, got)
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, MismatchMissing, mm.Kind)
	assert.Contains(t, err.Error(), "nope")

	// Diff reports every difference
	assert.Len(t, Comparer{}.Diff(want, nulls), 1)
	assert.Len(t, Comparer{Columns: []string{"amount", "count"}}.Diff(got, nulls), 2)
}
