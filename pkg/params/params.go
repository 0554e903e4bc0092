// Package params encodes a payment attempt into the ordered parameter list a
// positional-parameter store expects.
package params

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// NullMarker is the type of Null.
type NullMarker struct{}

func (NullMarker) String() string { return "NULL" }

// Null marks an absent optional value. It is distinct from every zero value.
var Null = NullMarker{}

// Param is one bound slot.
type Param struct {
	Index  int
	Column string
	// Value is string, int64, int16, bool or Null.
	Value any
}

// IsNull reports whether the slot holds the null marker.
func (p Param) IsNull() bool {
	_, ok := p.Value.(NullMarker)
	return ok
}

// List is an ordered parameter list; entry i binds column i.
type List []Param

// Values returns the bound values with the null marker replaced by nil, the
// form database/sql and pgx expect.
func (l List) Values() []any {
	out := make([]any, len(l))
	for i, p := range l {
		if !p.IsNull() {
			out[i] = p.Value
		}
	}
	return out
}

// Get returns the parameter bound to column.
func (l List) Get(column string) (Param, bool) {
	for _, p := range l {
		if p.Column == column {
			return p, true
		}
	}
	return Param{}, false
}

// NullCount counts null markers.
func (l List) NullCount() int {
	n := 0
	for _, p := range l {
		if p.IsNull() {
			n++
		}
	}
	return n
}

// Fingerprint hashes column names, value types and values, so two lists share
// a fingerprint only if they would bind identically.
func (l List) Fingerprint() uint64 {
	h := xxh3.New()
	var buf []byte
	for _, p := range l {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, int64(p.Index), 10)
		buf = append(buf, ':')
		buf = append(buf, p.Column...)
		buf = append(buf, '=')
		switch v := p.Value.(type) {
		case NullMarker:
			buf = append(buf, 'N')
		case string:
			buf = append(buf, 's')
			buf = strconv.AppendQuote(buf, v)
		case int64:
			buf = append(buf, 'i')
			buf = strconv.AppendInt(buf, v, 10)
		case int16:
			buf = append(buf, 'h')
			buf = strconv.AppendInt(buf, int64(v), 10)
		case bool:
			buf = append(buf, 'b')
			buf = strconv.AppendBool(buf, v)
		default:
			buf = fmt.Appendf(buf, "?%v", v)
		}
		buf = append(buf, ';')
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// Binder is a statement that accepts values by position. Indexes are 0-based.
type Binder interface {
	Bind(i int, v any) error
	BindNull(i int) error
}

// ErrSchemaMismatch is returned when a column schema disagrees with the field
// table in count, order, type or nullability.
var ErrSchemaMismatch = errors.New("column schema does not match the payment attempt table")

// EncodeError names the column whose value could not be encoded.
type EncodeError struct {
	Column string
	Index  int
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode column %d (%s): %v", e.Index, e.Column, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
