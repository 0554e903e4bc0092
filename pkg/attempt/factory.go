package attempt

import (
	"fmt"

	"github.com/TFMV/attemptgen/pkg/randr"
)

// Factory generates payment attempts field by field from the field table.
// The zero Factory uses the canonical enum policy.
type Factory struct {
	EnumPolicy randr.EnumPolicy
}

var _ randr.Generator[PaymentAttempt] = Factory{}

// Default implements randr.Generator. Fields are drawn in column order, each
// independently.
func (f Factory) Default(r *randr.Rand) PaymentAttempt {
	var a PaymentAttempt
	for _, fld := range fields {
		fld.generate(r, f.EnumPolicy, &a)
	}
	return a
}

// New generates one record. Hooks apply to the record as a whole. The only
// failure is an exhausted entropy source, in which case no record is returned.
func (f Factory) New(r *randr.Rand, hooks ...randr.Hook[PaymentAttempt]) (PaymentAttempt, error) {
	a := randr.Generate[PaymentAttempt](r, f, hooks...)
	if err := r.Err(); err != nil {
		return PaymentAttempt{}, fmt.Errorf("generate payment attempt: %w", err)
	}
	return a, nil
}

// NewBatch generates n records from r.
func (f Factory) NewBatch(r *randr.Rand, n int) ([]PaymentAttempt, error) {
	out := make([]PaymentAttempt, 0, n)
	for i := 0; i < n; i++ {
		a, err := f.New(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
