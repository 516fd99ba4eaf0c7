// Package diff verifies the reproducibility of generated datasets. A
// stored table is compared cell by cell against a second copy, usually a
// regeneration under the same seed, worker count, and profile.
package diff

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/readers"
)

// DefaultMaxDivergences caps how many differing cells a result reports.
const DefaultMaxDivergences = 10

// Options controls a comparison run.
type Options struct {
	// MaxDivergences caps how many differing cells are reported.
	// Zero means DefaultMaxDivergences. Counting continues past the cap.
	MaxDivergences int

	// Tolerance is the relative tolerance for float comparison. Zero
	// compares floats exactly, the correct setting for checking a
	// deterministic regeneration.
	Tolerance float64

	// Workers is the number of columns compared in parallel. Zero means 4.
	Workers int
}

// Divergence pinpoints one differing cell.
type Divergence struct {
	Column   string `json:"column"`
	Row      int64  `json:"row"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Result summarizes a comparison.
type Result struct {
	Equal        bool          `json:"equal"`
	ExpectedRows int64         `json:"expected_rows"`
	ActualRows   int64         `json:"actual_rows"`
	Columns      int           `json:"columns"`
	DiffCells    int64         `json:"diff_cells"`
	Divergences  []Divergence  `json:"divergences,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Checker compares datasets cell by cell.
type Checker struct {
	alloc memory.Allocator
}

// NewChecker creates a new checker.
func NewChecker() *Checker {
	return &Checker{
		alloc: memory.NewGoAllocator(),
	}
}

// Close closes the checker and releases resources.
func (c *Checker) Close() error {
	// No explicit resources to close
	return nil
}

// Compare materializes both datasets and compares them. Schemas must match
// field for field; differing row counts or cell values produce an unequal
// result, not an error.
func (c *Checker) Compare(ctx context.Context, expected, actual core.DatasetReader, opts Options) (*Result, error) {
	if err := compatibleSchemas(expected.Schema(), actual.Schema()); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	exp, err := c.readDataset(ctx, expected)
	if err != nil {
		return nil, fmt.Errorf("failed to read expected dataset: %w", err)
	}
	defer exp.Release()

	act, err := c.readDataset(ctx, actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read actual dataset: %w", err)
	}
	defer act.Release()

	return c.CompareRecords(ctx, exp, act, opts)
}

// CompareRecords compares two in-memory records.
func (c *Checker) CompareRecords(ctx context.Context, expected, actual arrow.Record, opts Options) (*Result, error) {
	start := time.Now()

	if err := compatibleSchemas(expected.Schema(), actual.Schema()); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	result := &Result{
		ExpectedRows: expected.NumRows(),
		ActualRows:   actual.NumRows(),
		Columns:      int(expected.NumCols()),
	}

	// A row count mismatch is already a verdict; cells cannot be paired
	if expected.NumRows() != actual.NumRows() {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	// Fast path: bitwise equality of the whole record
	if opts.Tolerance == 0 && array.RecordEqual(expected, actual) {
		result.Equal = true
		result.Elapsed = time.Since(start)
		return result, nil
	}

	maxDiv := opts.MaxDivergences
	if maxDiv <= 0 {
		maxDiv = DefaultMaxDivergences
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu    sync.Mutex
		total int64
		divs  []Divergence
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < int(expected.NumCols()); i++ {
		g.Go(func() error {
			name := expected.Schema().Field(i).Name
			colDivs, count := compareColumn(gctx, name, expected.Column(i), actual.Column(i), opts.Tolerance, maxDiv)

			mu.Lock()
			total += count
			divs = append(divs, colDivs...)
			mu.Unlock()

			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Report the earliest divergences regardless of column scan order
	sort.Slice(divs, func(a, b int) bool {
		if divs[a].Row != divs[b].Row {
			return divs[a].Row < divs[b].Row
		}
		return divs[a].Column < divs[b].Column
	})
	if len(divs) > maxDiv {
		divs = divs[:maxDiv]
	}

	result.DiffCells = total
	result.Divergences = divs
	result.Equal = total == 0
	result.Elapsed = time.Since(start)
	return result, nil
}

// compareColumn scans one column pair and reports differing cells. At most
// max divergences are collected; counting continues past the cap.
func compareColumn(ctx context.Context, name string, expected, actual arrow.Array, tolerance float64, max int) ([]Divergence, int64) {
	var divs []Divergence
	var count int64

	for i := 0; i < expected.Len(); i++ {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				return divs, count
			default:
			}
		}

		if cellEqual(expected, actual, i, tolerance) {
			continue
		}

		count++
		if len(divs) < max {
			divs = append(divs, Divergence{
				Column:   name,
				Row:      int64(i),
				Expected: valueString(expected, i),
				Actual:   valueString(actual, i),
			})
		}
	}
	return divs, count
}

// cellEqual compares the cells at index i, treating matching null slots as
// equal. Floats go through the tolerance check when one is configured.
func cellEqual(expected, actual arrow.Array, i int, tolerance float64) bool {
	if expected.IsNull(i) || actual.IsNull(i) {
		return expected.IsNull(i) == actual.IsNull(i)
	}

	if tolerance > 0 {
		switch expected.DataType().ID() {
		case arrow.FLOAT32:
			return floatEqual(float64(expected.(*array.Float32).Value(i)), float64(actual.(*array.Float32).Value(i)), tolerance)
		case arrow.FLOAT64:
			return floatEqual(expected.(*array.Float64).Value(i), actual.(*array.Float64).Value(i), tolerance)
		}
	}

	return array.SliceEqual(expected, int64(i), int64(i+1), actual, int64(i), int64(i+1))
}

// floatEqual compares two float values with relative tolerance.
func floatEqual(a, b, tolerance float64) bool {
	if a == b {
		return true
	}

	// Handle special cases like NaN, +/-Inf
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}

	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return true
	}

	// Compare with tolerance
	diff := math.Abs(a - b)
	if a == 0 || b == 0 {
		return diff < tolerance
	}

	// Use relative tolerance based on the larger value
	return diff/math.Max(math.Abs(a), math.Abs(b)) < tolerance
}

// valueString converts a value at a specific index to a string.
func valueString(arr arrow.Array, idx int) string {
	if arr.IsNull(idx) {
		return "NULL"
	}

	// Use Arrow's value formatting functions
	val := arr.GetOneForMarshal(idx)
	if val == nil {
		return "NULL"
	}

	return fmt.Sprintf("%v", val)
}

// compatibleSchemas checks that both datasets carry the same fields, in
// the same order, with the same types.
func compatibleSchemas(expected, actual *arrow.Schema) error {
	if expected.NumFields() != actual.NumFields() {
		return fmt.Errorf("field count mismatch: expected %d, actual %d: %w",
			expected.NumFields(), actual.NumFields(), core.ErrInvalidConfiguration)
	}
	for i := 0; i < expected.NumFields(); i++ {
		ef, af := expected.Field(i), actual.Field(i)
		if ef.Name != af.Name {
			return fmt.Errorf("field %d name mismatch: expected %s, actual %s: %w",
				i, ef.Name, af.Name, core.ErrInvalidConfiguration)
		}
		if !arrow.TypeEqual(ef.Type, af.Type) {
			return fmt.Errorf("field %s type mismatch: expected %s, actual %s: %w",
				ef.Name, ef.Type, af.Type, core.ErrInvalidConfiguration)
		}
	}
	return nil
}

// readDataset materializes a reader into a single record.
func (c *Checker) readDataset(ctx context.Context, reader core.DatasetReader) (arrow.Record, error) {
	return readers.ReadAll(ctx, c.alloc, reader)
}
