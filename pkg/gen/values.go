package gen

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"

	"github.com/TFMV/mimic/pkg/core"
)

// Reference instant all generated timestamps precede: June 2020.
const anchorSeconds int64 = 1591053936

const nanosPerSecond int64 = 1_000_000_000

// Spread parameters for the geometric offsets: timestamps scatter over a
// ~2 year window before the anchor, durations over ~1 year.
const (
	timestampSpread = 1.0 / (2 * 365 * 24 * 60 * 60)
	durationSpread  = 1.0 / (365 * 24 * 60 * 60)
)

// Generated string content stays in the printable ASCII range '!'..'~'.
const (
	charLo    = '!'
	charRange = '~' - '!' + 1
)

// Gamma shape parameter for run-length draws.
const runShape = 4

// builderFn generates one fully populated column of numRows rows.
type builderFn func(eng *Engine, numRows int, prof Profile) (arrow.Array, error)

// typeSpec carries what the generic fixed-width path needs for one element
// type: the Arrow type, a single-value draw, and the traits cast from the
// typed slice to its byte representation.
type typeSpec[T comparable] struct {
	dtype arrow.DataType
	draw  func(*Engine) T
	bytes func([]T) []byte
}

// numericDraw returns a draw for a numeric type: zero-mean normal with a
// width-dependent standard deviation, absolute value for unsigned types,
// clamped to the type's range. Wider types get exponentially larger spread.
func numericDraw[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64](stddev, lo, hi float64, unsigned bool) func(*Engine) T {
	return func(e *Engine) T {
		v := e.Normal(stddev)
		if unsigned {
			v = math.Abs(v)
		}
		v = math.Max(math.Min(v, hi), lo)
		return T(v)
	}
}

// timestampDraw returns a draw producing "recent" instants: the anchor minus
// a geometrically distributed number of seconds minus a uniform sub-second
// remainder, truncated to the unit's precision. Most results land within a
// few years before the anchor.
func timestampDraw(nanosPerUnit int64) func(*Engine) arrow.Timestamp {
	return func(e *Engine) arrow.Timestamp {
		ns := anchorSeconds*nanosPerSecond -
			e.Geometric(timestampSpread)*nanosPerSecond -
			e.Int64N(nanosPerSecond+1)
		return arrow.Timestamp(ns / nanosPerUnit)
	}
}

// durationDraw is the duration counterpart: a geometric magnitude plus a
// uniform sub-second remainder, truncated to the unit's precision.
func durationDraw(nanosPerUnit int64) func(*Engine) arrow.Duration {
	return func(e *Engine) arrow.Duration {
		ns := e.Geometric(durationSpread)*nanosPerSecond + e.Int64N(nanosPerSecond+1)
		return arrow.Duration(ns / nanosPerUnit)
	}
}

// decimalDraw is the documented fixed-point placeholder: every value is
// zero. Null frequency and run replication still apply normally.
func decimalDraw(*Engine) decimal128.Num {
	return decimal128.Num{}
}

// columnBuilders is the closed dispatch table from type tag to column
// generator. Tags absent here (dictionary, list, struct) are rejected with
// core.ErrUnsupportedType before any generation happens.
var columnBuilders = map[core.TypeTag]builderFn{
	core.Bool:    buildBoolColumn,
	core.Int8:    buildFixedColumn(typeSpec[int8]{arrow.PrimitiveTypes.Int8, numericDraw[int8](1<<4, math.MinInt8, math.MaxInt8, false), arrow.Int8Traits.CastToBytes}),
	core.Int16:   buildFixedColumn(typeSpec[int16]{arrow.PrimitiveTypes.Int16, numericDraw[int16](1<<8, math.MinInt16, math.MaxInt16, false), arrow.Int16Traits.CastToBytes}),
	core.Int32:   buildFixedColumn(typeSpec[int32]{arrow.PrimitiveTypes.Int32, numericDraw[int32](1<<16, math.MinInt32, math.MaxInt32, false), arrow.Int32Traits.CastToBytes}),
	core.Int64:   buildFixedColumn(typeSpec[int64]{arrow.PrimitiveTypes.Int64, numericDraw[int64](1<<32, math.MinInt64, math.MaxInt64, false), arrow.Int64Traits.CastToBytes}),
	core.Uint8:   buildFixedColumn(typeSpec[uint8]{arrow.PrimitiveTypes.Uint8, numericDraw[uint8](1<<4, 0, math.MaxUint8, true), arrow.Uint8Traits.CastToBytes}),
	core.Uint16:  buildFixedColumn(typeSpec[uint16]{arrow.PrimitiveTypes.Uint16, numericDraw[uint16](1<<8, 0, math.MaxUint16, true), arrow.Uint16Traits.CastToBytes}),
	core.Uint32:  buildFixedColumn(typeSpec[uint32]{arrow.PrimitiveTypes.Uint32, numericDraw[uint32](1<<16, 0, math.MaxUint32, true), arrow.Uint32Traits.CastToBytes}),
	core.Uint64:  buildFixedColumn(typeSpec[uint64]{arrow.PrimitiveTypes.Uint64, numericDraw[uint64](1<<32, 0, math.MaxUint64, true), arrow.Uint64Traits.CastToBytes}),
	core.Float32: buildFixedColumn(typeSpec[float32]{arrow.PrimitiveTypes.Float32, numericDraw[float32](1<<16, -math.MaxFloat32, math.MaxFloat32, false), arrow.Float32Traits.CastToBytes}),
	core.Float64: buildFixedColumn(typeSpec[float64]{arrow.PrimitiveTypes.Float64, numericDraw[float64](1<<32, -math.MaxFloat64, math.MaxFloat64, false), arrow.Float64Traits.CastToBytes}),

	core.TimestampSeconds: buildFixedColumn(typeSpec[arrow.Timestamp]{&arrow.TimestampType{Unit: arrow.Second}, timestampDraw(nanosPerSecond), arrow.TimestampTraits.CastToBytes}),
	core.TimestampMillis:  buildFixedColumn(typeSpec[arrow.Timestamp]{&arrow.TimestampType{Unit: arrow.Millisecond}, timestampDraw(nanosPerSecond / 1_000), arrow.TimestampTraits.CastToBytes}),
	core.TimestampMicros:  buildFixedColumn(typeSpec[arrow.Timestamp]{&arrow.TimestampType{Unit: arrow.Microsecond}, timestampDraw(nanosPerSecond / 1_000_000), arrow.TimestampTraits.CastToBytes}),
	core.TimestampNanos:   buildFixedColumn(typeSpec[arrow.Timestamp]{&arrow.TimestampType{Unit: arrow.Nanosecond}, timestampDraw(1), arrow.TimestampTraits.CastToBytes}),

	core.DurationSeconds: buildFixedColumn(typeSpec[arrow.Duration]{arrow.FixedWidthTypes.Duration_s, durationDraw(nanosPerSecond), arrow.DurationTraits.CastToBytes}),
	core.DurationMillis:  buildFixedColumn(typeSpec[arrow.Duration]{arrow.FixedWidthTypes.Duration_ms, durationDraw(nanosPerSecond / 1_000), arrow.DurationTraits.CastToBytes}),
	core.DurationMicros:  buildFixedColumn(typeSpec[arrow.Duration]{arrow.FixedWidthTypes.Duration_us, durationDraw(nanosPerSecond / 1_000_000), arrow.DurationTraits.CastToBytes}),
	core.DurationNanos:   buildFixedColumn(typeSpec[arrow.Duration]{arrow.FixedWidthTypes.Duration_ns, durationDraw(1), arrow.DurationTraits.CastToBytes}),

	core.Decimal128: buildFixedColumn(typeSpec[decimal128.Num]{&arrow.Decimal128Type{Precision: 18, Scale: 2}, decimalDraw, arrow.Decimal128Traits.CastToBytes}),
	core.String:     buildStringColumn,
}
