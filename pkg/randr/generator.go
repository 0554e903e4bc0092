package randr

import (
	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"
)

// StringLength is the length of every generated string.
const StringLength = 30

// Generator produces the default value of T.
type Generator[T any] interface {
	// Default builds a structurally valid T from r.
	Default(r *Rand) T
}

// Func adapts a plain function to Generator.
type Func[T any] func(r *Rand) T

// Default implements Generator.
func (f Func[T]) Default(r *Rand) T {
	return f(r)
}

type hooks[T any] struct {
	construct func() T
	transform func(T) T
}

// Hook customizes a single Generate call.
type Hook[T any] func(*hooks[T])

// WithConstructor replaces the default rule: f's result becomes the base value
// and the generator is not consulted at all.
func WithConstructor[T any](f func() T) Hook[T] {
	return func(h *hooks[T]) {
		h.construct = f
	}
}

// WithTransform post-processes the base value before it is returned.
func WithTransform[T any](f func(T) T) Hook[T] {
	return func(h *hooks[T]) {
		h.transform = f
	}
}

// Generate builds a T from the constructor hook if one is given, otherwise from
// g's default rule, and then applies the transform hook if one is given.
func Generate[T any](r *Rand, g Generator[T], hs ...Hook[T]) T {
	var h hooks[T]
	for _, hook := range hs {
		hook(&h)
	}

	var v T
	if h.construct != nil {
		v = h.construct()
	} else {
		v = g.Default(r)
	}

	if h.transform != nil {
		return h.transform(v)
	}
	return v
}

// String yields StringLength alphanumeric characters.
func String() Generator[string] {
	return Func[string](func(r *Rand) string {
		return r.Alphanumeric(StringLength)
	})
}

// Int64 is uniform over the full int64 range.
func Int64() Generator[int64] {
	return Func[int64]((*Rand).Int64)
}

// Int16 is uniform over the full int16 range.
func Int16() Generator[int16] {
	return Func[int16]((*Rand).Int16)
}

// Bool is a fair coin.
func Bool() Generator[bool] {
	return Func[bool]((*Rand).Bool)
}

// Timestamp yields the current wall-clock time in UTC with the zone dropped.
func Timestamp() Generator[civil.DateTime] {
	return Func[civil.DateTime](func(r *Rand) civil.DateTime {
		return civil.DateTimeOf(r.Now().UTC())
	})
}

// Payload yields a JSON null. It is a placeholder, not representative
// content: free-form payloads are never synthesized.
func Payload() Generator[json.RawMessage] {
	return Func[json.RawMessage](func(*Rand) json.RawMessage {
		return json.RawMessage("null")
	})
}

// Optional flips the presence coin once; heads generates a T, tails yields nil.
func Optional[T any](g Generator[T]) Generator[*T] {
	return Func[*T](func(r *Rand) *T {
		if !r.Coin() {
			return nil
		}
		v := g.Default(r)
		return &v
	})
}

// OneOf picks between two arms of a tagged union with a fair coin, then
// generates the chosen arm. The arm coin is never the presence coin, so
// WithPresence does not pin the arm.
func OneOf[T any](heads, tails Generator[T]) Generator[T] {
	return Func[T](func(r *Rand) T {
		if r.Bool() {
			return heads.Default(r)
		}
		return tails.Default(r)
	})
}
