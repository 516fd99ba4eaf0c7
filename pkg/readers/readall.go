package readers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mimic/pkg/core"
)

// ReadAll drains a reader into a single record. Readers hand out
// caller-owned batches, so ownership transfers without retaining; the
// caller releases the returned record. An empty dataset materializes as a
// zero-row record with the reader's schema.
func ReadAll(ctx context.Context, alloc memory.Allocator, reader core.DatasetReader) (arrow.Record, error) {
	var records []arrow.Record
	release := func() {
		for _, r := range records {
			r.Release()
		}
	}

	for {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			release()
			return nil, err
		}
		records = append(records, record)
	}

	switch len(records) {
	case 0:
		return emptyRecord(alloc, reader.Schema()), nil
	case 1:
		return records[0], nil
	}

	defer release()
	return combineRecords(alloc, reader.Schema(), records)
}

// emptyRecord creates a zero-row record with the given schema.
func emptyRecord(alloc memory.Allocator, schema *arrow.Schema) arrow.Record {
	cols := make([]arrow.Array, schema.NumFields())
	for i, field := range schema.Fields() {
		builder := array.NewBuilder(alloc, field.Type)
		cols[i] = builder.NewArray()
		builder.Release()
	}

	record := array.NewRecord(schema, cols, 0)
	for _, col := range cols {
		col.Release()
	}
	return record
}

// combineRecords concatenates batches column by column into one record.
func combineRecords(alloc memory.Allocator, schema *arrow.Schema, records []arrow.Record) (arrow.Record, error) {
	var rows int64
	for _, rec := range records {
		rows += rec.NumRows()
	}

	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	for i := 0; i < schema.NumFields(); i++ {
		parts := make([]arrow.Array, len(records))
		for j, rec := range records {
			parts[j] = rec.Column(i)
		}
		col, err := array.Concatenate(parts, alloc)
		if err != nil {
			return nil, fmt.Errorf("failed to concatenate column %s: %w", schema.Field(i).Name, err)
		}
		cols[i] = col
	}

	return array.NewRecord(schema, cols, rows), nil
}
