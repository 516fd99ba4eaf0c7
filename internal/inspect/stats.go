// Package inspect computes per-column statistics over generated tables.
// The numbers feed generation reports and the realism validator: null
// counts against the configured null frequency, run segments against the
// configured run length, distinct counts against the pool cardinality.
package inspect

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ColumnStats describes one generated column.
type ColumnStats struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Rows       int64   `json:"rows"`
	Nulls      int64   `json:"nulls"`
	NullRatio  float64 `json:"null_ratio"`
	Distinct   int64   `json:"distinct"`
	Runs       int64   `json:"runs"`
	MeanRunLen float64 `json:"mean_run_length"`
	Bytes      int64   `json:"bytes"`
}

// Column scans one array and returns its statistics.
func Column(arr arrow.Array, name string) ColumnStats {
	stats := ColumnStats{
		Name:  name,
		Type:  arr.DataType().String(),
		Rows:  int64(arr.Len()),
		Nulls: int64(arr.NullN()),
		Bytes: arrayBytes(arr),
	}
	if stats.Rows == 0 {
		return stats
	}

	stats.NullRatio = float64(stats.Nulls) / float64(stats.Rows)

	// A run is a maximal segment of rows sharing one value, nulls
	// included; run replication copies validity along with the value
	stats.Runs = 1
	for i := 1; i < arr.Len(); i++ {
		if !adjacentEqual(arr, i) {
			stats.Runs++
		}
	}
	stats.MeanRunLen = float64(stats.Rows) / float64(stats.Runs)

	// Null slots count as one shared pseudo-value
	distinct := make(map[string]struct{})
	anyNull := false
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			anyNull = true
			continue
		}
		distinct[arr.ValueStr(i)] = struct{}{}
	}
	stats.Distinct = int64(len(distinct))
	if anyNull {
		stats.Distinct++
	}

	return stats
}

// Record scans every column of a record.
func Record(rec arrow.Record) []ColumnStats {
	stats := make([]ColumnStats, rec.NumCols())
	for i, col := range rec.Columns() {
		stats[i] = Column(col, rec.Schema().Field(i).Name)
	}
	return stats
}

// adjacentEqual reports whether the cells at i-1 and i hold the same
// value, treating two nulls as equal.
func adjacentEqual(arr arrow.Array, i int) bool {
	if arr.IsNull(i-1) || arr.IsNull(i) {
		return arr.IsNull(i-1) == arr.IsNull(i)
	}
	return array.SliceEqual(arr, int64(i-1), int64(i), arr, int64(i), int64(i+1))
}

// arrayBytes sums the sizes of the buffers backing the array.
func arrayBytes(arr arrow.Array) int64 {
	var total int64
	for _, buf := range arr.Data().Buffers() {
		if buf != nil {
			total += int64(buf.Len())
		}
	}
	return total
}
