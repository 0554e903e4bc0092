package readers

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/core"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/randr"
)

// AttemptReader generates payment attempts and yields them as encoded
// batches in the attempt column layout.
type AttemptReader struct {
	factory   attempt.Factory
	rand      *randr.Rand
	remaining int64
	batchSize int64
	mem       memory.Allocator
}

// NewAttemptReader creates a reader of config.Count generated attempts.
func NewAttemptReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Count <= 0 {
		return nil, errors.New("count must be positive for the attempts reader")
	}
	policy := randr.CanonicalDefault
	if config.EnumPolicy != "" {
		p, err := randr.ParseEnumPolicy(config.EnumPolicy)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	var r *randr.Rand
	if config.Seed != nil {
		r = randr.NewSeeded(*config.Seed)
	} else {
		r = randr.NewSecure()
	}
	return NewAttemptReaderFrom(attempt.Factory{EnumPolicy: policy}, r, config.Count, config.BatchSize, memory.DefaultAllocator), nil
}

// NewAttemptReaderFrom builds a reader over an existing factory and Rand.
func NewAttemptReaderFrom(f attempt.Factory, r *randr.Rand, count, batchSize int64, mem memory.Allocator) *AttemptReader {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	return &AttemptReader{factory: f, rand: r, remaining: count, batchSize: batchSize, mem: mem}
}

// Read generates and encodes the next batch.
func (r *AttemptReader) Read(ctx context.Context) (arrow.Record, error) {
	if r.remaining <= 0 {
		return nil, io.EOF
	}
	n := min(r.batchSize, r.remaining)
	lists := make([]params.List, 0, n)
	for i := int64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := r.factory.New(r.rand)
		if err != nil {
			return nil, err
		}
		list, err := params.Encode(&a, nil)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	rec, err := params.ToRecord(r.mem, attempt.Schema(), lists...)
	if err != nil {
		return nil, err
	}
	r.remaining -= n
	return rec, nil
}

func (r *AttemptReader) Schema() *arrow.Schema { return attempt.Schema() }

func (r *AttemptReader) Close() error {
	r.remaining = 0
	return nil
}

func hasExt(path string, exts ...string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
