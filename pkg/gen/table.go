// Package gen implements the generation core of Mimic: per-type value
// distributions, cardinality-bounded sample pools with run-length
// correlation, null-mask carving, and deterministic parallel column
// assembly onto Arrow storage.
package gen

import (
	"fmt"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/schema"
)

// Columns generates one column per tag from a single engine. This is the
// sequential entry point each parallel worker runs over its slice of the
// table; callers own the returned arrays and must release them.
func Columns(tags []core.TypeTag, numRows int, eng *Engine, prof Profile) ([]arrow.Array, error) {
	if eng == nil {
		return nil, fmt.Errorf("generate columns: nil engine: %w", core.ErrInvalidConfiguration)
	}
	if numRows < 0 {
		return nil, fmt.Errorf("generate columns: negative row count %d: %w", numRows, core.ErrInvalidConfiguration)
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	cols := make([]arrow.Array, 0, len(tags))
	for i, tag := range tags {
		build, ok := columnBuilders[tag]
		if !ok {
			releaseAll(cols)
			return nil, fmt.Errorf("generate column %d (%s): %w", i, tag, core.ErrUnsupportedType)
		}
		col, err := build(eng, numRows, prof)
		if err != nil {
			releaseAll(cols)
			return nil, fmt.Errorf("generate column %d (%s): %w", i, tag, err)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// Table generates a complete table. The requested tags repeat cyclically to
// fill numCols columns, the byte budget fixes a uniform row count, and the
// columns are generated by a fixed pool of workers over contiguous column
// slices. Sub-seeds are derived from the root engine sequentially before any
// worker starts, so output depends only on the seed and the worker count,
// never on scheduling. Column order always matches the repeated tag order.
// Any per-column failure fails the whole call; no partial table is returned.
func Table(tags []core.TypeTag, numCols int, tableBytes int64, opts Options) (arrow.Record, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("generate table: empty type list: %w", core.ErrInvalidConfiguration)
	}
	if numCols < 1 {
		return nil, fmt.Errorf("generate table: column count %d: %w", numCols, core.ErrInvalidConfiguration)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("generate table: negative worker count %d: %w", opts.Workers, core.ErrInvalidConfiguration)
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}

	all := schema.Repeat(tags, numCols)
	numRows, err := RowCount(all, tableBytes)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	chunk := (numCols + workers - 1) / workers

	// Seed derivation happens here, sequentially, in chunk order. It is the
	// only use of the root engine.
	root := NewEngine(opts.Seed)
	type task struct {
		index int
		tags  []core.TypeTag
		eng   *Engine
	}
	var tasks []task
	for start := 0; start < numCols; start += chunk {
		end := min(start+chunk, numCols)
		tasks = append(tasks, task{
			index: len(tasks),
			tags:  all[start:end],
			eng:   NewEngine(root.SubSeed()),
		})
	}

	results := make([][]arrow.Array, len(tasks))
	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			cols, err := Columns(t.tags, numRows, t.eng, opts.Profile)
			if err != nil {
				return err
			}
			results[t.index] = cols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, cols := range results {
			releaseAll(cols)
		}
		return nil, err
	}

	// Concatenation follows task submission order, not completion order.
	cols := make([]arrow.Array, 0, numCols)
	for _, part := range results {
		cols = append(cols, part...)
	}
	rec := assembleRecord(cols, numRows)
	releaseAll(cols)
	return rec, nil
}
