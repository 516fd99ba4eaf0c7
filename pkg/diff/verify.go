package diff

import (
	"context"
	"fmt"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/gen"
)

// ReplaySpec pins everything a regeneration needs to reproduce a dataset:
// the type list, the table shape, and the generation options. Worker count
// matters; the same seed under a different worker count partitions the
// columns differently and yields different data.
type ReplaySpec struct {
	Tags       []core.TypeTag
	NumCols    int
	TableBytes int64
	Opts       gen.Options
}

// Verify regenerates the dataset described by spec and compares the stored
// copy against it cell by cell.
func (c *Checker) Verify(ctx context.Context, actual core.DatasetReader, spec ReplaySpec, opts Options) (*Result, error) {
	expected, err := gen.Table(spec.Tags, spec.NumCols, spec.TableBytes, spec.Opts)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate dataset: %w", err)
	}
	defer expected.Release()

	act, err := c.readDataset(ctx, actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	defer act.Release()

	return c.CompareRecords(ctx, expected, act, opts)
}
