// Package writers writes batches of encoded payment attempts to Parquet,
// Arrow IPC and JSON files.
package writers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/TFMV/attemptgen/pkg/core"
)

// Factory creates a writer based on the given configuration.
type Factory struct {
	// registered writers by type
	writers map[string]Creator
}

// Creator is a function that creates a writer from a configuration.
type Creator func(config core.WriterConfig) (core.DatasetWriter, error)

// NewFactory creates a new writer factory.
func NewFactory() *Factory {
	return &Factory{
		writers: make(map[string]Creator),
	}
}

// Register registers a creator for a writer type.
func (f *Factory) Register(typ string, creator Creator) {
	f.writers[typ] = creator
}

// Create creates a writer based on the given configuration.
func (f *Factory) Create(config core.WriterConfig) (core.DatasetWriter, error) {
	creator, ok := f.writers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported writer type: %s", config.Type)
	}
	return creator(config)
}

// Types lists the registered writer types.
func (f *Factory) Types() []string {
	out := make([]string, 0, len(f.writers))
	for t := range f.writers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DefaultFactory is the default writer factory with built-in writer types.
var DefaultFactory = NewFactory()

func init() {
	DefaultFactory.Register("parquet", NewParquetWriter)
	DefaultFactory.Register("arrow", NewArrowWriter)
	DefaultFactory.Register("json", NewJSONWriter)
}

// Copy drains src into dst and returns the number of rows written. It does
// not close either side.
func Copy(ctx context.Context, dst core.DatasetWriter, src core.DatasetReader) (int64, error) {
	var rows int64
	for {
		rec, err := src.Read(ctx)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		err = dst.Write(ctx, rec)
		n := rec.NumRows()
		rec.Release()
		if err != nil {
			return rows, err
		}
		rows += n
	}
}
