package randr

import (
	"fmt"
	"strings"
)

// EnumPolicy decides which variant an enum generator yields.
type EnumPolicy int

const (
	// CanonicalDefault always yields the enum's declared default variant.
	CanonicalDefault EnumPolicy = iota

	// UniformSample draws uniformly over all declared variants.
	UniformSample
)

func (p EnumPolicy) String() string {
	switch p {
	case CanonicalDefault:
		return "canonical"
	case UniformSample:
		return "uniform"
	default:
		return fmt.Sprintf("EnumPolicy(%d)", int(p))
	}
}

// ParseEnumPolicy accepts "canonical" (or "") and "uniform".
func ParseEnumPolicy(s string) (EnumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical":
		return CanonicalDefault, nil
	case "uniform":
		return UniformSample, nil
	default:
		return CanonicalDefault, fmt.Errorf("unknown enum policy %q (expected canonical or uniform)", s)
	}
}

// Enum generates values of an enum type under policy p. An empty variant list
// degrades to the canonical value.
func Enum[E any](p EnumPolicy, canonical E, variants []E) Generator[E] {
	return Func[E](func(r *Rand) E {
		if p != UniformSample || len(variants) == 0 {
			return canonical
		}
		return variants[r.IntN(len(variants))]
	})
}
