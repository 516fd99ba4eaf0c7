package gen

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Arrow is the column and table storage for generated data. The raw buffers
// produced by the fill algorithm are wrapped without copying: the mask bytes
// become the validity bitmap, value bytes the data buffer, and for strings
// the offsets sit between the two.

func newFixedArray(dtype arrow.DataType, rows int, values []byte, mask *NullMask) arrow.Array {
	data := array.NewData(dtype, rows, []*memory.Buffer{
		memory.NewBufferBytes(mask.Bytes()),
		memory.NewBufferBytes(values),
	}, nil, mask.NullCount(), 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func newBoolArray(rows int, valueBits []byte, mask *NullMask) arrow.Array {
	data := array.NewData(arrow.FixedWidthTypes.Boolean, rows, []*memory.Buffer{
		memory.NewBufferBytes(mask.Bytes()),
		memory.NewBufferBytes(valueBits),
	}, nil, mask.NullCount(), 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func newStringArray(rows int, chars []byte, offsets []int32, mask *NullMask) arrow.Array {
	data := array.NewData(arrow.BinaryTypes.String, rows, []*memory.Buffer{
		memory.NewBufferBytes(mask.Bytes()),
		memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets)),
		memory.NewBufferBytes(chars),
	}, nil, mask.NullCount(), 0)
	defer data.Release()
	return array.MakeFromData(data)
}

// assembleRecord joins the ordered columns into a record. Field names follow
// the column position; every field is nullable.
func assembleRecord(cols []arrow.Array, rows int) arrow.Record {
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		fields[i] = arrow.Field{Name: fmt.Sprintf("col%d", i), Type: col.DataType(), Nullable: true}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(rows))
}

func releaseAll(cols []arrow.Array) {
	for _, col := range cols {
		if col != nil {
			col.Release()
		}
	}
}
