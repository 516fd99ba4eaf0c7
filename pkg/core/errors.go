package core

import "errors"

// Generation failures fall into two kinds. Both are permanent: generation is
// fully deterministic, so a failing seed and type set fails identically on
// every attempt and is never retried.
var (
	// ErrUnsupportedType is returned when a TypeTag denotes a compound type
	// (dictionary, list, struct) during value generation or size estimation.
	ErrUnsupportedType = errors.New("unsupported column type")

	// ErrInvalidConfiguration is returned for requests that cannot describe a
	// table: an empty type list, a non-positive column count, a negative byte
	// budget, or a negative worker count.
	ErrInvalidConfiguration = errors.New("invalid generation configuration")
)
