package integrations

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mimic/pkg/core"
)

var _ core.DatasetReader = (*fakeReader)(nil)

// fakeReader yields a fixed set of batches, then io.EOF or an injected error.
type fakeReader struct {
	schema  *arrow.Schema
	records []arrow.Record
	next    int
	readErr error
	closed  bool
}

func (f *fakeReader) Read(ctx context.Context) (arrow.Record, error) {
	if f.next >= len(f.records) {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return nil, io.EOF
	}
	rec := f.records[f.next]
	f.next++
	rec.Retain()
	return rec, nil
}

func (f *fakeReader) Schema() *arrow.Schema { return f.schema }

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func batchSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "v", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
}

func makeBatch(t *testing.T, mem memory.Allocator, sch *arrow.Schema, vals []int64) arrow.Record {
	t.Helper()
	b := array.NewRecordBuilder(mem, sch)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(vals, nil)
	return b.NewRecord()
}

// TestDatasetStreamDrains walks a two-batch dataset through the stream and
// checks row accounting and batch lifetimes.
func TestDatasetStreamDrains(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sch := batchSchema()
	r1 := makeBatch(t, mem, sch, []int64{1, 2, 3})
	defer r1.Release()
	r2 := makeBatch(t, mem, sch, []int64{4, 5})
	defer r2.Release()

	reader := &fakeReader{schema: sch, records: []arrow.Record{r1, r2}}
	stream := newDatasetStream(context.Background(), reader)
	defer stream.Release()

	if stream.Schema() != sch {
		t.Errorf("expected reader schema to pass through")
	}

	batches := 0
	for stream.Next() {
		if stream.Record() == nil {
			t.Fatal("Next returned true but Record is nil")
		}
		batches++
	}
	if batches != 2 {
		t.Errorf("expected 2 batches, got %d", batches)
	}
	if err := stream.Err(); err != nil {
		t.Errorf("unexpected stream error: %v", err)
	}
	if stream.Rows() != 5 {
		t.Errorf("expected 5 rows streamed, got %d", stream.Rows())
	}
}

// TestDatasetStreamReadError ends the stream on a read failure and surfaces
// it through Err, keeping the rows streamed so far.
func TestDatasetStreamReadError(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sch := batchSchema()
	r1 := makeBatch(t, mem, sch, []int64{1, 2, 3})
	defer r1.Release()

	readErr := errors.New("backing file vanished")
	reader := &fakeReader{schema: sch, records: []arrow.Record{r1}, readErr: readErr}
	stream := newDatasetStream(context.Background(), reader)
	defer stream.Release()

	if !stream.Next() {
		t.Fatal("expected first batch")
	}
	if stream.Next() {
		t.Fatal("expected stream to end on read failure")
	}
	if !errors.Is(stream.Err(), readErr) {
		t.Errorf("expected read error, got %v", stream.Err())
	}
	if stream.Rows() != 3 {
		t.Errorf("expected 3 rows streamed before failure, got %d", stream.Rows())
	}
}

// TestDatasetStreamRelease holds the current batch until the last reference
// is gone.
func TestDatasetStreamRelease(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sch := batchSchema()
	r1 := makeBatch(t, mem, sch, []int64{7})
	defer r1.Release()

	reader := &fakeReader{schema: sch, records: []arrow.Record{r1}}
	stream := newDatasetStream(context.Background(), reader)

	if !stream.Next() {
		t.Fatal("expected a batch")
	}

	stream.Retain()
	stream.Release()
	if stream.Record() == nil {
		t.Fatal("batch dropped while the stream was still referenced")
	}

	stream.Release()
	if stream.Record() != nil {
		t.Error("expected batch to be dropped once all references are gone")
	}
}
