// Package schema provides the column type vocabulary for generated
// datasets: tag parsing, cyclic repetition across a column count, and the
// Arrow schema a generated table carries.
package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/mimic/pkg/core"
)

// tagsByName maps accepted tokens to tags. Canonical tokens match
// core.TypeTag.String(); the aliases cover common spellings.
var tagsByName = map[string]core.TypeTag{
	"bool":       core.Bool,
	"boolean":    core.Bool,
	"int8":       core.Int8,
	"int16":      core.Int16,
	"int32":      core.Int32,
	"int64":      core.Int64,
	"uint8":      core.Uint8,
	"uint16":     core.Uint16,
	"uint32":     core.Uint32,
	"uint64":     core.Uint64,
	"float32":    core.Float32,
	"float":      core.Float32,
	"float64":    core.Float64,
	"double":     core.Float64,
	"ts_s":       core.TimestampSeconds,
	"ts_ms":      core.TimestampMillis,
	"ts_us":      core.TimestampMicros,
	"ts_ns":      core.TimestampNanos,
	"dur_s":      core.DurationSeconds,
	"dur_ms":     core.DurationMillis,
	"dur_us":     core.DurationMicros,
	"dur_ns":     core.DurationNanos,
	"decimal128": core.Decimal128,
	"decimal":    core.Decimal128,
	"string":     core.String,
	"str":        core.String,
	"dictionary": core.Dictionary,
	"list":       core.List,
	"struct":     core.Struct,
}

// ParseTag resolves a single type token. Nested tags (dictionary, list,
// struct) parse successfully; they fail later, in generation and size
// estimation, so the unsupported-type contract is exercised rather than
// masked at the parsing layer.
func ParseTag(s string) (core.TypeTag, error) {
	tag, ok := tagsByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown type tag %q (supported: %s): %w",
			s, strings.Join(Supported(), ", "), core.ErrInvalidConfiguration)
	}
	return tag, nil
}

// Parse resolves a comma-separated tag list such as "int32,string,ts_ms".
func Parse(list string) ([]core.TypeTag, error) {
	parts := strings.Split(list, ",")
	tags := make([]core.TypeTag, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		tag, err := ParseTag(p)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("empty type list %q: %w", list, core.ErrInvalidConfiguration)
	}
	return tags, nil
}

// Format renders tags back to their canonical comma-separated form.
func Format(tags []core.TypeTag) string {
	tokens := make([]string, len(tags))
	for i, tag := range tags {
		tokens[i] = tag.String()
	}
	return strings.Join(tokens, ",")
}

// Repeat expands tags cyclically to numCols entries, so a short type list
// describes an arbitrarily wide table. tags must be non-empty and numCols
// non-negative.
func Repeat(tags []core.TypeTag, numCols int) []core.TypeTag {
	out := make([]core.TypeTag, numCols)
	for i := range out {
		out[i] = tags[i%len(tags)]
	}
	return out
}

// ArrowType maps a supported tag to the Arrow type its generated columns
// carry. Timestamps are timezone-naive.
func ArrowType(tag core.TypeTag) (arrow.DataType, error) {
	switch tag {
	case core.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case core.Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case core.Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case core.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case core.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case core.Uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case core.Uint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case core.Uint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case core.Uint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case core.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case core.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case core.TimestampSeconds:
		return &arrow.TimestampType{Unit: arrow.Second}, nil
	case core.TimestampMillis:
		return &arrow.TimestampType{Unit: arrow.Millisecond}, nil
	case core.TimestampMicros:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case core.TimestampNanos:
		return &arrow.TimestampType{Unit: arrow.Nanosecond}, nil
	case core.DurationSeconds:
		return arrow.FixedWidthTypes.Duration_s, nil
	case core.DurationMillis:
		return arrow.FixedWidthTypes.Duration_ms, nil
	case core.DurationMicros:
		return arrow.FixedWidthTypes.Duration_us, nil
	case core.DurationNanos:
		return arrow.FixedWidthTypes.Duration_ns, nil
	case core.Decimal128:
		return &arrow.Decimal128Type{Precision: 18, Scale: 2}, nil
	case core.String:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("arrow type for %s: %w", tag, core.ErrUnsupportedType)
	}
}

// ArrowSchema builds the schema of a generated table over the given
// (already repeated) tags. Fields are named by position, col0 onward, and
// are always nullable.
func ArrowSchema(tags []core.TypeTag) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(tags))
	for i, tag := range tags {
		dt, err := ArrowType(tag)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: fmt.Sprintf("col%d", i), Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// Supported returns the canonical tokens of every generatable tag, in tag
// order, for help text and error messages.
func Supported() []string {
	var tokens []string
	for tag := core.Bool; tag <= core.String; tag++ {
		tokens = append(tokens, tag.String())
	}
	return tokens
}
