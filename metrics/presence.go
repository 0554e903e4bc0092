package metrics

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/randr"
)

// CriticalChiSquare is the chi-square critical value for one degree of
// freedom at p = 0.0001. A fair presence coin exceeds it once in 10,000 runs
// per column.
const CriticalChiSquare = 15.137

// ColumnPresence counts how often an optional column was populated.
type ColumnPresence struct {
	Column  string `json:"column"`
	Index   int    `json:"index"`
	Present int    `json:"present"`
	Total   int    `json:"total"`
}

// Rate is the observed share of present values.
func (c ColumnPresence) Rate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Present) / float64(c.Total)
}

// ChiSquare is Pearson's statistic for the counts against p = 0.5:
// sum over present and absent of (observed - N/2)^2 / (N/2).
func (c ColumnPresence) ChiSquare() float64 {
	if c.Total == 0 {
		return 0
	}
	expected := float64(c.Total) / 2
	present := float64(c.Present) - expected
	absent := float64(c.Total-c.Present) - expected
	return (present*present + absent*absent) / expected
}

// Within reports whether the statistic is below critical.
func (c ColumnPresence) Within(critical float64) bool {
	return c.ChiSquare() < critical
}

// PresenceStats is the presence count of every optional column over a run.
type PresenceStats struct {
	Seed    uint64           `json:"seed"`
	Samples int              `json:"samples"`
	Workers int              `json:"workers"`
	Columns []ColumnPresence `json:"columns"`
}

// Failing returns the columns whose statistic reaches critical.
func (s PresenceStats) Failing(critical float64) []ColumnPresence {
	var out []ColumnPresence
	for _, c := range s.Columns {
		if !c.Within(critical) {
			out = append(out, c)
		}
	}
	return out
}

// MaxChiSquare returns the largest statistic over all columns.
func (s PresenceStats) MaxChiSquare() float64 {
	max := 0.0
	for _, c := range s.Columns {
		max = math.Max(max, c.ChiSquare())
	}
	return max
}

// CollectPresence generates n records across workers and counts, for each
// optional column, how many were populated. Worker w draws from the seeded
// Rand split for w, so a fixed seed and worker count reproduce the counts.
func CollectPresence(ctx context.Context, f attempt.Factory, seed uint64, n, workers int, opts ...randr.Option) (PresenceStats, error) {
	if n <= 0 {
		return PresenceStats{}, fmt.Errorf("presence: sample count must be positive, got %d", n)
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	var optional []attempt.Field
	for _, fld := range attempt.Fields() {
		if fld.Optional {
			optional = append(optional, fld)
		}
	}

	base := randr.NewSeeded(seed, opts...)
	counts := make([][]int, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := n / workers
		if w < n%workers {
			share++
		}
		r := base.Split(w)
		counts[w] = make([]int, len(optional))
		g.Go(func() error {
			for i := 0; i < share; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				a, err := f.New(r)
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
				for j, fld := range optional {
					if _, ok := fld.Value(&a); ok {
						counts[w][j]++
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PresenceStats{}, err
	}

	stats := PresenceStats{Seed: seed, Samples: n, Workers: workers}
	for j, fld := range optional {
		c := ColumnPresence{Column: fld.Column, Index: fld.Index, Total: n}
		for w := range counts {
			c.Present += counts[w][j]
		}
		stats.Columns = append(stats.Columns, c)
	}
	return stats, nil
}
