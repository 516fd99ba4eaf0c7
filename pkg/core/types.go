// Package core provides the shared types and interfaces for the Mimic dataset synthesizer.
package core

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// TypeTag identifies the element kind of a generated column. The set is
// closed: every tag below is either fully supported by the generator or
// recognized and rejected with ErrUnsupportedType.
type TypeTag int

const (
	Bool TypeTag = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	TimestampSeconds
	TimestampMillis
	TimestampMicros
	TimestampNanos
	DurationSeconds
	DurationMillis
	DurationMicros
	DurationNanos
	Decimal128
	String

	// Recognized but unsupported. Requesting one of these fails generation
	// and size estimation with ErrUnsupportedType.
	Dictionary
	List
	Struct

	numTypeTags
)

var typeTagNames = [numTypeTags]string{
	Bool:             "bool",
	Int8:             "int8",
	Int16:            "int16",
	Int32:            "int32",
	Int64:            "int64",
	Uint8:            "uint8",
	Uint16:           "uint16",
	Uint32:           "uint32",
	Uint64:           "uint64",
	Float32:          "float32",
	Float64:          "float64",
	TimestampSeconds: "ts_s",
	TimestampMillis:  "ts_ms",
	TimestampMicros:  "ts_us",
	TimestampNanos:   "ts_ns",
	DurationSeconds:  "dur_s",
	DurationMillis:   "dur_ms",
	DurationMicros:   "dur_us",
	DurationNanos:    "dur_ns",
	Decimal128:       "decimal128",
	String:           "string",
	Dictionary:       "dictionary",
	List:             "list",
	Struct:           "struct",
}

// String returns the canonical token for the tag, as accepted by schema.Parse.
func (t TypeTag) String() string {
	if t < 0 || t >= numTypeTags {
		return "unknown"
	}
	return typeTagNames[t]
}

// Valid reports whether the tag is a member of the closed tag set,
// supported or not.
func (t TypeTag) Valid() bool {
	return t >= 0 && t < numTypeTags
}

// Nested reports whether the tag denotes a compound type that the
// generator does not implement.
func (t TypeTag) Nested() bool {
	return t == Dictionary || t == List || t == Struct
}

// DatasetReader defines an interface for reading generated datasets back
// from storage.
type DatasetReader interface {
	// Read returns a record batch and an error if any.
	// Returns io.EOF when there are no more batches.
	Read(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of the dataset.
	Schema() *arrow.Schema

	// Close closes the reader and releases resources.
	Close() error
}

// DatasetWriter defines an interface for writing generated datasets to
// various destinations.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader ("arrow", "parquet").
	Type string

	// Path is the path to the dataset file.
	Path string

	// BatchSize is the size of batches to read.
	BatchSize int64

	// Parallel enables parallel column decoding where the format supports it.
	Parallel bool
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer ("arrow", "parquet", "json").
	Type string

	// Path is the path to the output file.
	Path string

	// Compression names the compression codec for formats that support one.
	// Empty selects the format default.
	Compression string
}
