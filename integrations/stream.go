package integrations

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/mimic/pkg/core"
)

// datasetStream adapts a DatasetReader to the array.RecordReader stream
// interface that ADBC statements bind. Each batch is released as the
// stream advances past it.
type datasetStream struct {
	ctx     context.Context
	reader  core.DatasetReader
	current arrow.Record
	rows    int64
	err     error
	refs    int64
}

func newDatasetStream(ctx context.Context, reader core.DatasetReader) *datasetStream {
	return &datasetStream{ctx: ctx, reader: reader, refs: 1}
}

// Schema returns the schema of the underlying dataset.
func (s *datasetStream) Schema() *arrow.Schema {
	return s.reader.Schema()
}

// Next advances to the next batch. A read failure other than end-of-data
// ends the stream and is reported through Err.
func (s *datasetStream) Next() bool {
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}

	record, err := s.reader.Read(s.ctx)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.current = record
	s.rows += record.NumRows()
	return true
}

// Record returns the current batch.
func (s *datasetStream) Record() arrow.Record {
	return s.current
}

// Err returns the first read failure, if any.
func (s *datasetStream) Err() error {
	return s.err
}

// Rows returns the number of rows handed out so far.
func (s *datasetStream) Rows() int64 {
	return s.rows
}

// Retain increases the stream's reference count.
func (s *datasetStream) Retain() {
	atomic.AddInt64(&s.refs, 1)
}

// Release decreases the reference count and drops the current batch when
// it reaches zero.
func (s *datasetStream) Release() {
	if atomic.AddInt64(&s.refs, -1) == 0 && s.current != nil {
		s.current.Release()
		s.current = nil
	}
}
