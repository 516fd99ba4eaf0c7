// Package utils provides small shared helpers: a single-record
// array.RecordReader adapter and human-readable size formatting.
package utils

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// SingleRecordReader adapts one arrow.Record to the array.RecordReader
// stream interface. Ingestion targets bind record streams, and a generated
// table is a single record.
type SingleRecordReader struct {
	record arrow.Record
	done   bool
}

// NewSingleRecordReader creates a reader that yields record exactly once.
func NewSingleRecordReader(record arrow.Record) *SingleRecordReader {
	return &SingleRecordReader{record: record, done: false}
}

// Schema returns the schema of the record.
func (r *SingleRecordReader) Schema() *arrow.Schema {
	return r.record.Schema()
}

// Next advances the stream; it reports true exactly once.
func (r *SingleRecordReader) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

// Record returns the wrapped record.
func (r *SingleRecordReader) Record() arrow.Record {
	return r.record
}

// Err always returns nil; a wrapped record cannot fail.
func (r *SingleRecordReader) Err() error {
	return nil
}

// Release releases the wrapped record.
func (r *SingleRecordReader) Release() {
	r.record.Release()
}

// Retain increases the reference count of the wrapped record.
func (r *SingleRecordReader) Retain() {
	r.record.Retain()
}

// Close releases resources associated with the SingleRecordReader.
func (r *SingleRecordReader) Close() error {
	return nil
}
