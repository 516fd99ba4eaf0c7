package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ArrowReader implements a reader for Arrow IPC files. Batches come back
// exactly as they were written, one per Read call; BatchSize does not
// apply to this format.
type ArrowReader struct {
	schema *arrow.Schema
	reader *ipc.FileReader
	file   *os.File
	next   int
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowReader{
		schema: reader.Schema(),
		reader: reader,
		file:   file,
	}, nil
}

// Read returns the next batch. The caller owns the returned record and
// must release it.
func (r *ArrowReader) Read(ctx context.Context) (arrow.Record, error) {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.next >= r.reader.NumRecords() {
		return nil, io.EOF
	}

	record, err := r.reader.Record(r.next)
	if err != nil {
		return nil, fmt.Errorf("failed to read record at index %d: %w", r.next, err)
	}
	r.next++

	// The file reader owns its records, so hand out an independent copy
	return cloneRecord(record), nil
}

// cloneRecord copies a record by re-wrapping its column data. Buffers are
// shared, not duplicated; the clone holds its own references.
func cloneRecord(record arrow.Record) arrow.Record {
	cols := make([]arrow.Array, record.NumCols())
	for i, col := range record.Columns() {
		cols[i] = array.MakeFromData(col.Data())
	}
	rec := array.NewRecord(record.Schema(), cols, record.NumRows())
	for _, col := range cols {
		col.Release()
	}
	return rec
}

// Schema returns the schema of the dataset.
func (r *ArrowReader) Schema() *arrow.Schema {
	return r.schema
}

// Close closes the reader and releases resources.
func (r *ArrowReader) Close() error {
	var err error

	if r.reader != nil {
		if closeErr := r.reader.Close(); closeErr != nil {
			err = closeErr
		}
		r.reader = nil
	}

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}
