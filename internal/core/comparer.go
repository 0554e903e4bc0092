package core

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// MismatchKind classifies a difference between two records.
type MismatchKind string

const (
	MismatchMissing MismatchKind = "missing column"
	MismatchRows    MismatchKind = "row count"
	MismatchType    MismatchKind = "type"
	MismatchNull    MismatchKind = "null"
	MismatchValue   MismatchKind = "value"
)

// MismatchError describes the first difference found by a Comparer.
type MismatchError struct {
	Kind   MismatchKind
	Column string
	Row    int
	Want   any
	Got    any
}

func (e *MismatchError) Error() string {
	switch e.Kind {
	case MismatchMissing, MismatchType:
		return fmt.Sprintf("column '%s': %s mismatch", e.Column, e.Kind)
	case MismatchRows:
		return fmt.Sprintf("row count mismatch: want %v, got %v", e.Want, e.Got)
	default:
		return fmt.Sprintf("%s mismatch at row %d, column '%s': want %v, got %v", e.Kind, e.Row, e.Column, e.Want, e.Got)
	}
}

// Comparer checks that a record read back from a store holds what was written.
type Comparer struct {
	// Columns limits the comparison; empty means every column of want.
	Columns []string
}

// Compare returns nil when got matches want on the selected columns. Nulls
// must line up and non-null values must be equal.
func (c Comparer) Compare(want, got arrow.Record) error {
	mismatches := c.diff(want, got, 1)
	if len(mismatches) == 0 {
		return nil
	}
	return mismatches[0]
}

// Diff returns every difference, up to one per column and row.
func (c Comparer) Diff(want, got arrow.Record) []*MismatchError {
	return c.diff(want, got, -1)
}

func (c Comparer) diff(want, got arrow.Record, limit int) []*MismatchError {
	var out []*MismatchError
	add := func(m *MismatchError) bool {
		out = append(out, m)
		return limit > 0 && len(out) >= limit
	}

	if want.NumRows() != got.NumRows() {
		add(&MismatchError{Kind: MismatchRows, Row: -1, Want: want.NumRows(), Got: got.NumRows()})
		return out
	}

	columns := c.Columns
	if len(columns) == 0 {
		for _, f := range want.Schema().Fields() {
			columns = append(columns, f.Name)
		}
	}

	for _, name := range columns {
		col1, col2, err := columnPair(want, got, name)
		if err != nil {
			if add(err) {
				return out
			}
			continue
		}
		if !arrow.TypeEqual(col1.DataType(), col2.DataType()) {
			if add(&MismatchError{Kind: MismatchType, Column: name, Row: -1, Want: col1.DataType(), Got: col2.DataType()}) {
				return out
			}
			continue
		}
		for i := 0; i < col1.Len(); i++ {
			null1, null2 := col1.IsNull(i), col2.IsNull(i)
			switch {
			case null1 && null2:
				continue
			case null1 || null2:
				if add(&MismatchError{Kind: MismatchNull, Column: name, Row: i, Want: valueAt(col1, i), Got: valueAt(col2, i)}) {
					return out
				}
			case !valuesEqual(col1, col2, i):
				if add(&MismatchError{Kind: MismatchValue, Column: name, Row: i, Want: valueAt(col1, i), Got: valueAt(col2, i)}) {
					return out
				}
			}
		}
	}
	return out
}

func columnPair(want, got arrow.Record, name string) (arrow.Array, arrow.Array, *MismatchError) {
	idx1 := want.Schema().FieldIndices(name)
	idx2 := got.Schema().FieldIndices(name)
	if len(idx1) != 1 || len(idx2) != 1 {
		return nil, nil, &MismatchError{Kind: MismatchMissing, Column: name, Row: -1}
	}
	return want.Column(idx1[0]), got.Column(idx2[0]), nil
}

func valueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	return arr.GetOneForMarshal(i)
}

// valuesEqual compares non-null slot idx of two arrays of the same type.
func valuesEqual(arr1, arr2 arrow.Array, idx int) bool {
	switch a1 := arr1.(type) {
	case *array.Boolean:
		return a1.Value(idx) == arr2.(*array.Boolean).Value(idx)
	case *array.Int16:
		return a1.Value(idx) == arr2.(*array.Int16).Value(idx)
	case *array.Int32:
		return a1.Value(idx) == arr2.(*array.Int32).Value(idx)
	case *array.Int64:
		return a1.Value(idx) == arr2.(*array.Int64).Value(idx)
	case *array.Float64:
		return a1.Value(idx) == arr2.(*array.Float64).Value(idx)
	case *array.String:
		return a1.Value(idx) == arr2.(*array.String).Value(idx)
	case *array.LargeString:
		return a1.Value(idx) == arr2.(*array.LargeString).Value(idx)
	case *array.Binary:
		return string(a1.Value(idx)) == string(arr2.(*array.Binary).Value(idx))
	default:
		return false
	}
}
