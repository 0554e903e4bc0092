package writers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"

	"github.com/TFMV/attemptgen/pkg/core"
)

// JSONWriter writes rows as a JSON array of objects whose keys follow the
// column order. Null cells are written as null.
type JSONWriter struct {
	file  *os.File
	buf   *bufio.Writer
	first bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSON writer")
	}
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}
	buf := bufio.NewWriter(file)
	if _, err := buf.WriteString("["); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write opening bracket: %w", err)
	}
	return &JSONWriter{file: file, buf: buf, first: true}, nil
}

// Write writes a record to the file.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := 0; i < int(record.NumRows()); i++ {
		row, err := encodeRow(record, i)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		sep := ",\n  "
		if w.first {
			sep = "\n  "
			w.first = false
		}
		if _, err := w.buf.WriteString(sep); err != nil {
			return err
		}
		if _, err := w.buf.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func encodeRow(record arrow.Record, i int) ([]byte, error) {
	out := []byte{'{'}
	for j, col := range record.Columns() {
		if j > 0 {
			out = append(out, ',')
		}
		key, err := json.Marshal(record.ColumnName(j))
		if err != nil {
			return nil, err
		}
		out = append(out, key...)
		out = append(out, ':')

		var v any
		if col.IsValid(i) {
			v = col.GetOneForMarshal(i)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
	}
	return append(out, '}'), nil
}

// Close closes the writer and flushes any pending data.
func (w *JSONWriter) Close() error {
	closing := "\n]\n"
	if w.first {
		closing = "]\n"
	}
	_, err := w.buf.WriteString(closing)
	if err == nil {
		err = w.buf.Flush()
	}
	if closeErr := w.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
