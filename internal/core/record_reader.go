package core

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ErrRowOutOfRange is returned by Reader.Value for an index past the last row.
var ErrRowOutOfRange = errors.New("row index out of range")

// Reader decodes rows of one or more records into structs of type T. Fields
// map to columns through the `arrow` tag, falling back to the field name.
// Pointer fields receive nil for null slots; other fields keep their zero value.
type Reader[T any] struct {
	records []arrow.Record
}

func NewReader[T any](records ...arrow.Record) *Reader[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("core: Reader needs a struct type, got %v", t))
	}
	return &Reader[T]{records: records}
}

func (r *Reader[T]) NumRows() int64 {
	var rows int64
	for _, rec := range r.records {
		rows += rec.NumRows()
	}
	return rows
}

// Value decodes row i counted across all records.
func (r *Reader[T]) Value(i int) (T, error) {
	var row T
	if i < 0 {
		return row, ErrRowOutOfRange
	}

	var rec arrow.Record
	offset := int64(i)
	for _, candidate := range r.records {
		if offset < candidate.NumRows() {
			rec = candidate
			break
		}
		offset -= candidate.NumRows()
	}
	if rec == nil {
		return row, ErrRowOutOfRange
	}

	rv := reflect.ValueOf(&row).Elem()
	rt := rv.Type()
	for j := 0; j < rt.NumField(); j++ {
		field := rt.Field(j)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("arrow")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		idx := rec.Schema().FieldIndices(name)
		if len(idx) != 1 {
			return row, fmt.Errorf("column %s not found or ambiguous", name)
		}
		if err := setValue(rv.Field(j), rec.Column(idx[0]), int(offset)); err != nil {
			return row, fmt.Errorf("column %s: %w", name, err)
		}
	}
	return row, nil
}

func setValue(field reflect.Value, col arrow.Array, idx int) error {
	if col.IsNull(idx) {
		return nil
	}
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := setValue(ptr.Elem(), col, idx); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		if field.Kind() != reflect.Bool {
			return kindError(field, col)
		}
		field.SetBool(arr.Value(idx))
	case *array.Int16:
		return setInt(field, col, int64(arr.Value(idx)))
	case *array.Int32:
		return setInt(field, col, int64(arr.Value(idx)))
	case *array.Int64:
		return setInt(field, col, arr.Value(idx))
	case *array.String:
		if field.Kind() != reflect.String {
			return kindError(field, col)
		}
		field.SetString(arr.Value(idx))
	default:
		return fmt.Errorf("unsupported column type %s", col.DataType())
	}
	return nil
}

func setInt(field reflect.Value, col arrow.Array, v int64) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.OverflowInt(v) {
			return fmt.Errorf("value %d overflows %s", v, field.Type())
		}
		field.SetInt(v)
		return nil
	default:
		return kindError(field, col)
	}
}

func kindError(field reflect.Value, col arrow.Array) error {
	return fmt.Errorf("cannot decode %s into %s", col.DataType(), field.Type())
}
