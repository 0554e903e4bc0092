// Package core provides the batch interfaces shared by the export readers
// and writers.
package core

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// DatasetReader defines an interface for reading record batches.
type DatasetReader interface {
	// Read returns the next batch. The caller releases it.
	// Returns io.EOF when there are no more batches.
	Read(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of every batch.
	Schema() *arrow.Schema

	// Close closes the reader and releases resources.
	Close() error
}

// DatasetWriter defines an interface for writing record batches to a file.
type DatasetWriter interface {
	// Write writes a record to the destination. The writer does not take
	// ownership of record.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader: attempts, parquet or arrow.
	Type string

	// Path is the path to the file. Unused by the attempts reader.
	Path string

	// Count is the number of records the attempts reader generates.
	Count int64

	// Seed seeds the attempts reader; nil draws from the operating system.
	Seed *uint64

	// EnumPolicy is canonical or uniform.
	EnumPolicy string

	// BatchSize is the number of rows per batch.
	BatchSize int64
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer: parquet, arrow or json.
	Type string

	// Path is the path to the file.
	Path string

	// Compression names the parquet codec (snappy, zstd, gzip, none).
	Compression string
}

// DefaultBatchSize is used when a config leaves BatchSize unset.
const DefaultBatchSize = 1024
