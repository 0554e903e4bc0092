package writers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/TFMV/attemptgen/pkg/core"
)

// ParquetWriter implements a writer for Parquet files.
type ParquetWriter struct {
	writer *pqarrow.FileWriter
	file   *os.File
	codec  compress.Compression
}

// parseCodec maps a codec name to its parquet compression; empty means snappy.
func parseCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression: %s", name)
	}
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}
	codec, err := parseCodec(config.Compression)
	if err != nil {
		return nil, err
	}
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet file: %w", err)
	}
	return &ParquetWriter{file: file, codec: codec}, nil
}

// Write writes a record to the file. Each record becomes its own row group.
func (w *ParquetWriter) Write(ctx context.Context, record arrow.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The writer needs the schema, so it is created with the first record.
	if w.writer == nil {
		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(w.codec),
			parquet.WithDictionaryDefault(false),
		)
		writer, err := pqarrow.NewFileWriter(record.Schema(), w.file, writeProps, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}
		w.writer = writer
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close writes the footer and closes the file. The parquet writer may have
// closed the file already.
func (w *ParquetWriter) Close() error {
	var err error
	if w.writer != nil {
		err = w.writer.Close()
	}
	if closeErr := w.file.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && err == nil {
		err = closeErr
	}
	return err
}
