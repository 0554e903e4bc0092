// Package randr generates structurally valid random values for arbitrary types.
//
// Every draw goes through an explicit *Rand, which wraps an injectable entropy
// Source. A seeded Rand replays the same sequence, which makes generated data
// reproducible in tests.
package randr

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// ErrEntropyExhausted is reported when the underlying Source can no longer
// produce random bits. It is fatal for the generation attempt in progress.
var ErrEntropyExhausted = errors.New("randr: entropy source exhausted")

// Source produces uniformly distributed 64-bit values.
type Source interface {
	Uint64() (uint64, error)
}

// pcgSource is the deterministic source used for seeded generation.
type pcgSource struct {
	pcg *mrand.PCG
}

func (s pcgSource) Uint64() (uint64, error) {
	return s.pcg.Uint64(), nil
}

// SeededSource returns a deterministic Source for the given seed.
func SeededSource(seed uint64) Source {
	return pcgSource{pcg: mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// readerSource draws bits from an io.Reader such as crypto/rand.Reader.
type readerSource struct {
	r   io.Reader
	buf [8]byte
}

// ReaderSource returns a Source reading from r. Read failures surface as
// ErrEntropyExhausted.
func ReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) Uint64() (uint64, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEntropyExhausted, err)
	}
	return binary.LittleEndian.Uint64(s.buf[:]), nil
}

// Option configures a Rand.
type Option func(*Rand)

// WithClock sets the clock used for timestamp generation.
func WithClock(now func() time.Time) Option {
	return func(r *Rand) {
		r.clock = now
	}
}

// WithPresence replaces the fair presence coin used by Optional and OneOf.
// It exists so tests can force every optional field present or absent.
func WithPresence(coin func() bool) Option {
	return func(r *Rand) {
		r.presence = coin
	}
}

// Rand is a concurrency-safe random value source with a sticky error.
//
// Once the Source fails, every later draw returns zero values and Err reports
// the first failure.
type Rand struct {
	mu       sync.Mutex
	src      Source
	seed     uint64
	seeded   bool
	clock    func() time.Time
	presence func() bool
	err      error
}

// New returns a Rand drawing from src.
func New(src Source, opts ...Option) *Rand {
	r := &Rand{src: src, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSeeded returns a reproducible Rand.
func NewSeeded(seed uint64, opts ...Option) *Rand {
	r := New(SeededSource(seed), opts...)
	r.seed = seed
	r.seeded = true
	return r
}

// NewSecure returns a Rand backed by the operating system's entropy pool.
func NewSecure(opts ...Option) *Rand {
	return New(ReaderSource(rand.Reader), opts...)
}

// Err returns the first entropy failure, if any.
func (r *Rand) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Uint64 draws 64 uniformly distributed bits.
func (r *Rand) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0
	}
	v, err := r.src.Uint64()
	if err != nil {
		if !errors.Is(err, ErrEntropyExhausted) {
			err = fmt.Errorf("%w: %v", ErrEntropyExhausted, err)
		}
		r.err = err
		return 0
	}
	return v
}

// Bool is a fair coin.
func (r *Rand) Bool() bool {
	return r.Uint64()&1 == 1
}

// Coin is the presence coin. It is fair unless overridden with WithPresence.
func (r *Rand) Coin() bool {
	if r.presence != nil {
		return r.presence()
	}
	return r.Bool()
}

// Int64 is uniform over the full int64 range.
func (r *Rand) Int64() int64 {
	return int64(r.Uint64())
}

// Int16 is uniform over the full int16 range.
func (r *Rand) Int16() int16 {
	return int16(r.Uint64())
}

// IntN returns a uniform value in [0, n). It panics if n <= 0.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		panic("randr: invalid argument to IntN")
	}
	bound := uint64(n)
	// Draws below 2^64 mod n are rejected so every residue is equally likely.
	thresh := -bound % bound
	for {
		v := r.Uint64()
		if r.Err() != nil {
			return 0
		}
		if v >= thresh {
			return int(v % bound)
		}
	}
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Alphanumeric returns n characters drawn uniformly from [A-Za-z0-9].
func (r *Rand) Alphanumeric(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[r.IntN(len(alphanumeric))]
	}
	return string(b)
}

// Now reads the configured clock.
func (r *Rand) Now() time.Time {
	return r.clock()
}

// Split derives an independent Rand for worker i. A seeded Rand derives a
// seeded child, so a fixed seed and worker count replay exactly. The child
// shares the parent's clock and presence coin.
func (r *Rand) Split(i int) *Rand {
	var seed uint64
	if r.seeded {
		var b [16]byte
		binary.LittleEndian.PutUint64(b[:8], r.seed)
		binary.LittleEndian.PutUint64(b[8:], uint64(i))
		seed = xxh3.Hash(b[:])
	} else {
		seed = r.Uint64()
	}
	child := NewSeeded(seed, WithClock(r.clock))
	child.presence = r.presence
	if err := r.Err(); err != nil {
		child.err = err
	}
	return child
}
