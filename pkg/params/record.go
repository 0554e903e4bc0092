package params

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ToRecord builds one Arrow row per list. Stores that bind a whole record,
// such as ADBC statements, and the exporters use it. The caller releases the
// record.
func ToRecord(mem memory.Allocator, s *arrow.Schema, lists ...List) (arrow.Record, error) {
	rows := make([][]any, len(lists))
	for i, l := range lists {
		rows[i] = l.Values()
	}
	return RowsToRecord(mem, s, rows)
}

// RowsToRecord builds a record from rows of driver values. nil is null; other
// values are coerced to the column type when that loses nothing, which covers
// the []byte text, narrower integers and 0/1 booleans that SQL drivers scan into.
func RowsToRecord(mem memory.Allocator, s *arrow.Schema, rows [][]any) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, s)
	defer b.Release()

	for r, row := range rows {
		if len(row) != s.NumFields() {
			return nil, fmt.Errorf("row %d has %d values, schema has %d columns", r, len(row), s.NumFields())
		}
		for i, v := range row {
			if err := appendValue(b.Field(i), v); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, s.Field(i).Name, err)
			}
		}
	}
	return b.NewRecord(), nil
}

func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	if _, ok := v.(NullMarker); ok {
		b.AppendNull()
		return nil
	}

	switch fb := b.(type) {
	case *array.StringBuilder:
		switch x := v.(type) {
		case string:
			fb.Append(x)
		case []byte:
			fb.Append(string(x))
		default:
			return fmt.Errorf("cannot store %T in a string column", v)
		}
	case *array.Int64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		fb.Append(n)
	case *array.Int16Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if n < math.MinInt16 || n > math.MaxInt16 {
			return fmt.Errorf("value %d overflows int16", n)
		}
		fb.Append(int16(n))
	case *array.BooleanBuilder:
		switch x := v.(type) {
		case bool:
			fb.Append(x)
		default:
			n, err := toInt64(v)
			if err != nil || (n != 0 && n != 1) {
				return fmt.Errorf("cannot store %v (%T) in a bool column", v, v)
			}
			fb.Append(n == 1)
		}
	default:
		return fmt.Errorf("unsupported column builder %T", b)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	default:
		return 0, fmt.Errorf("cannot store %T in an integer column", v)
	}
}
