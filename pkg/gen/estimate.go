package gen

import (
	"fmt"

	"github.com/TFMV/mimic/pkg/core"
)

// stringAvgElementBytes is the per-element estimate for string columns:
// 4 bytes of offset, 4 of length, 6 of assumed content. Deliberately a
// separate constant from Profile.AvgStringLength, so estimated and actual
// string column sizes can differ.
const stringAvgElementBytes = 4 + 4 + 6

// AvgElementBytes returns the average per-element byte cost used by the
// row-count estimate: the storage width for fixed-width types, a constant
// for strings. Nested tags fail with core.ErrUnsupportedType.
func AvgElementBytes(tag core.TypeTag) (int64, error) {
	switch tag {
	case core.Bool, core.Int8, core.Uint8:
		return 1, nil
	case core.Int16, core.Uint16:
		return 2, nil
	case core.Int32, core.Uint32, core.Float32:
		return 4, nil
	case core.Int64, core.Uint64, core.Float64,
		core.TimestampSeconds, core.TimestampMillis, core.TimestampMicros, core.TimestampNanos,
		core.DurationSeconds, core.DurationMillis, core.DurationMicros, core.DurationNanos:
		return 8, nil
	case core.Decimal128:
		return 16, nil
	case core.String:
		return stringAvgElementBytes, nil
	default:
		return 0, fmt.Errorf("estimate element size for %s: %w", tag, core.ErrUnsupportedType)
	}
}

// RowCount converts a table byte budget into the uniform row count applied
// to every column, dividing the budget by the summed per-element estimates
// of the (already repeated) column types. Integer division truncates; a
// budget smaller than one row yields zero rows, which generates an empty
// table rather than failing.
func RowCount(tags []core.TypeTag, tableBytes int64) (int, error) {
	if len(tags) == 0 {
		return 0, fmt.Errorf("row count: empty type list: %w", core.ErrInvalidConfiguration)
	}
	if tableBytes < 0 {
		return 0, fmt.Errorf("row count: negative byte budget %d: %w", tableBytes, core.ErrInvalidConfiguration)
	}
	var rowBytes int64
	for _, tag := range tags {
		b, err := AvgElementBytes(tag)
		if err != nil {
			return 0, err
		}
		rowBytes += b
	}
	return int(tableBytes / rowBytes), nil
}
