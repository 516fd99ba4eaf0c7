package inspect

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
)

func TestColumnStats(t *testing.T) {
	pool := memory.NewGoAllocator()

	b := array.NewInt32Builder(pool)
	defer b.Release()
	b.AppendValues([]int32{1, 1, 1, 2}, nil)
	b.AppendNull()
	b.AppendNull()
	b.Append(3)

	col := b.NewArray()
	defer col.Release()

	stats := Column(col, "col0")
	assert.Equal(t, "col0", stats.Name)
	assert.Equal(t, "int32", stats.Type)
	assert.Equal(t, int64(7), stats.Rows)
	assert.Equal(t, int64(2), stats.Nulls)
	assert.InDelta(t, 2.0/7.0, stats.NullRatio, 1e-9)
	assert.Equal(t, int64(4), stats.Runs, "runs are 111 / 2 / null null / 3")
	assert.InDelta(t, 7.0/4.0, stats.MeanRunLen, 1e-9)
	assert.Equal(t, int64(4), stats.Distinct, "three values plus the null pseudo-value")
	assert.Greater(t, stats.Bytes, int64(0))
}

func TestColumnStatsEmpty(t *testing.T) {
	pool := memory.NewGoAllocator()

	b := array.NewFloat64Builder(pool)
	defer b.Release()
	col := b.NewArray()
	defer col.Release()

	stats := Column(col, "col0")
	assert.Zero(t, stats.Rows)
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.Distinct)
	assert.Zero(t, stats.NullRatio)
}

func TestColumnStatsBoolean(t *testing.T) {
	pool := memory.NewGoAllocator()

	b := array.NewBooleanBuilder(pool)
	defer b.Release()
	b.AppendValues([]bool{true, true, false, true}, nil)

	col := b.NewArray()
	defer col.Release()

	stats := Column(col, "flags")
	assert.Equal(t, int64(3), stats.Runs)
	assert.Equal(t, int64(2), stats.Distinct)
	assert.Zero(t, stats.Nulls)
}

func TestRecordStatsOnGeneratedTable(t *testing.T) {
	tags, err := schema.Parse("int64,string")
	require.NoError(t, err)

	rec, err := gen.Table(tags, 4, 1<<16, gen.Options{
		Seed:    5,
		Workers: 2,
		Profile: gen.Profile{
			NullFrequency:   0.2,
			Cardinality:     10,
			AvgRunLength:    8,
			AvgStringLength: 16,
		},
	})
	require.NoError(t, err)
	defer rec.Release()

	stats := Record(rec)
	require.Len(t, stats, 4)

	for _, s := range stats {
		assert.Equal(t, rec.NumRows(), s.Rows, "column %s", s.Name)

		// Wide margins around the configured knobs: at most ten pooled
		// values plus the null pseudo-value, runs averaging several rows.
		// The null ratio under pooling follows the pool entries, so only
		// a loose bound holds for any seed.
		assert.LessOrEqual(t, s.NullRatio, 0.8, "column %s", s.Name)
		assert.LessOrEqual(t, s.Distinct, int64(11), "column %s", s.Name)
		assert.Greater(t, s.MeanRunLen, 2.0, "column %s", s.Name)
		assert.Less(t, s.Runs, s.Rows, "column %s", s.Name)
	}
}

func TestNullRatioWithoutPooling(t *testing.T) {
	tags, err := schema.Parse("int64,float64")
	require.NoError(t, err)

	// No pool and no runs: every row rolls validity independently, so the
	// observed ratio concentrates tightly around the configured frequency
	rec, err := gen.Table(tags, 2, 1<<16, gen.Options{
		Seed:    5,
		Workers: 1,
		Profile: gen.Profile{NullFrequency: 0.2},
	})
	require.NoError(t, err)
	defer rec.Release()

	for _, s := range Record(rec) {
		assert.InDelta(t, 0.2, s.NullRatio, 0.05, "column %s", s.Name)
	}
}
