package params

import (
	"encoding"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"

	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/schema"
)

// CheckSchema verifies s matches the field table column for column. A nil
// schema means attempt.Schema().
func CheckSchema(s *arrow.Schema) error {
	if s == nil || s == attempt.Schema() {
		return nil
	}
	result := schema.NewStrictValidator().ValidateAgainstTarget(s, attempt.Schema())
	if err := result.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Encode maps rec onto exactly attempt.NumColumns parameters, in column order.
//
// Native kinds bind their Go value, enums and timestamps bind their canonical
// text, nested values and payloads bind their JSON text, and absent optionals
// bind Null. On failure no list is returned.
func Encode(rec *attempt.PaymentAttempt, s *arrow.Schema) (List, error) {
	if err := CheckSchema(s); err != nil {
		return nil, err
	}

	fields := attempt.Fields()
	list := make(List, 0, len(fields))
	for _, f := range fields {
		v, present := f.Value(rec)
		if !present {
			if !f.Optional {
				return nil, &EncodeError{Column: f.Column, Index: f.Index, Err: fmt.Errorf("mandatory value is absent")}
			}
			list = append(list, Param{Index: f.Index, Column: f.Column, Value: Null})
			continue
		}
		enc, err := encodeValue(f.Kind, v)
		if err != nil {
			return nil, &EncodeError{Column: f.Column, Index: f.Index, Err: err}
		}
		list = append(list, Param{Index: f.Index, Column: f.Column, Value: enc})
	}
	return list, nil
}

func encodeValue(kind attempt.Kind, v any) (any, error) {
	switch kind {
	case attempt.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case attempt.KindInt64:
		if n, ok := v.(int64); ok {
			return n, nil
		}
	case attempt.KindInt16:
		if n, ok := v.(int16); ok {
			return n, nil
		}
	case attempt.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case attempt.KindEnum, attempt.KindTimestamp:
		if m, ok := v.(encoding.TextMarshaler); ok {
			b, err := m.MarshalText()
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
	case attempt.KindJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("cannot encode %T as %s", v, kind)
}

// EncodeInto encodes rec and binds every parameter on stmt. Nothing is bound
// unless the whole record encodes. The statement is never executed.
func EncodeInto(stmt Binder, rec *attempt.PaymentAttempt, s *arrow.Schema) error {
	list, err := Encode(rec, s)
	if err != nil {
		return err
	}
	for _, p := range list {
		if p.IsNull() {
			err = stmt.BindNull(p.Index)
		} else {
			err = stmt.Bind(p.Index, p.Value)
		}
		if err != nil {
			return fmt.Errorf("bind column %d (%s): %w", p.Index, p.Column, err)
		}
	}
	return nil
}
