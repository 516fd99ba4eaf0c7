package gen

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// The column fill algorithm is shared by every type. With a positive
// cardinality a pool of representative values is generated first, each with
// its own validity roll, and rows sample from the pool; with cardinality
// zero every row draws a fresh value. Either way, when the average run
// length exceeds one, each written row may start a run: a gamma draw fixes
// the run length and the row's value and validity are replicated forward,
// which gives the output the local repetition found in real datasets.
//
// Values are written only for valid rows, so invalid slots keep the zero
// value. Strings are the exception: their bytes land in the character
// buffer before the validity roll, so invalid rows still carry content.

// buildFixedColumn returns the builder for one fixed-width element type.
func buildFixedColumn[T comparable](spec typeSpec[T]) builderFn {
	return func(eng *Engine, numRows int, prof Profile) (arrow.Array, error) {
		valid := func() bool { return prof.NullFrequency == 0 || eng.Float64() >= prof.NullFrequency }

		var pool []T
		var poolMask *NullMask
		if prof.Cardinality > 0 {
			pool = make([]T, prof.Cardinality)
			poolMask = NewNullMask(prof.Cardinality)
			for i := range pool {
				if valid() {
					pool[i] = spec.draw(eng)
				} else {
					poolMask.Reset(i)
				}
			}
		}

		values := make([]T, numRows)
		mask := NewNullMask(numRows)
		scale := float64(prof.AvgRunLength) / runShape
		for row := 0; row < numRows; row++ {
			if prof.Cardinality == 0 {
				if valid() {
					values[row] = spec.draw(eng)
				} else {
					mask.Reset(row)
				}
			} else {
				sample := eng.IntN(prof.Cardinality)
				if poolMask.Valid(sample) {
					values[row] = pool[sample]
				} else {
					mask.Reset(row)
				}
			}

			if prof.AvgRunLength > 1 {
				runLen := min(numRows-row, int(math.Round(eng.Erlang(runShape, scale))))
				for off := 1; off < runLen; off++ {
					if mask.Valid(row) {
						values[row+off] = values[row]
					} else {
						mask.Reset(row + off)
					}
				}
				row += max(runLen-1, 0)
			}
		}

		return newFixedArray(spec.dtype, numRows, spec.bytes(values), mask), nil
	}
}

// buildBoolColumn is the bit-packed variant of the fixed-width fill: Arrow
// stores boolean values one bit per row, like the mask itself.
func buildBoolColumn(eng *Engine, numRows int, prof Profile) (arrow.Array, error) {
	valid := func() bool { return prof.NullFrequency == 0 || eng.Float64() >= prof.NullFrequency }

	var pool []bool
	var poolMask *NullMask
	if prof.Cardinality > 0 {
		pool = make([]bool, prof.Cardinality)
		poolMask = NewNullMask(prof.Cardinality)
		for i := range pool {
			if valid() {
				pool[i] = eng.Bool()
			} else {
				poolMask.Reset(i)
			}
		}
	}

	bits := make([]byte, bitutil.BytesForBits(int64(numRows)))
	mask := NewNullMask(numRows)
	setValue := func(row int, v bool) {
		if v {
			bitutil.SetBit(bits, row)
		}
	}
	scale := float64(prof.AvgRunLength) / runShape
	for row := 0; row < numRows; row++ {
		if prof.Cardinality == 0 {
			if valid() {
				setValue(row, eng.Bool())
			} else {
				mask.Reset(row)
			}
		} else {
			sample := eng.IntN(prof.Cardinality)
			if poolMask.Valid(sample) {
				setValue(row, pool[sample])
			} else {
				mask.Reset(row)
			}
		}

		if prof.AvgRunLength > 1 {
			runLen := min(numRows-row, int(math.Round(eng.Erlang(runShape, scale))))
			for off := 1; off < runLen; off++ {
				if mask.Valid(row) {
					setValue(row+off, bitutil.BitIsSet(bits, row))
				} else {
					mask.Reset(row + off)
				}
			}
			row += max(runLen-1, 0)
		}
	}

	return newBoolArray(numRows, bits, mask), nil
}

// stringColData accumulates a string column under construction: a growing
// character buffer, cumulative offsets (one more than the row count), and
// the validity mask. The sample pool for strings is itself a stringColData.
type stringColData struct {
	chars   []byte
	offsets []int32
	mask    *NullMask
}

func newStringColData(rows, byteHint int) *stringColData {
	return &stringColData{
		chars:   make([]byte, 0, byteHint),
		offsets: append(make([]int32, 0, rows+1), 0),
		mask:    NewNullMask(rows),
	}
}

// appendFresh generates one new string at the next row. Offsets and
// characters are written before the validity roll, so an invalid row still
// carries its generated bytes.
func (d *stringColData) appendFresh(eng *Engine, prof Profile) {
	row := len(d.offsets) - 1
	n := eng.Poisson(float64(prof.AvgStringLength))
	for i := 0; i < n; i++ {
		d.chars = append(d.chars, byte(charLo+eng.IntN(charRange)))
	}
	d.offsets = append(d.offsets, int32(len(d.chars)))
	if !(prof.NullFrequency == 0 || eng.Float64() >= prof.NullFrequency) {
		d.mask.Reset(row)
	}
}

// copyFrom replicates row src of from into the next row of d, bytes
// included even when the source row is invalid. from may be d itself, which
// is how run replication works.
func (d *stringColData) copyFrom(from *stringColData, src int) {
	row := len(d.offsets) - 1
	if !from.mask.Valid(src) {
		d.mask.Reset(row)
	}
	d.chars = append(d.chars, from.chars[from.offsets[src]:from.offsets[src+1]]...)
	d.offsets = append(d.offsets, int32(len(d.chars)))
}

// buildStringColumn is the variable-width specialization of the column fill.
func buildStringColumn(eng *Engine, numRows int, prof Profile) (arrow.Array, error) {
	var samples *stringColData
	if prof.Cardinality > 0 {
		samples = newStringColData(prof.Cardinality, prof.Cardinality*prof.AvgStringLength)
		for i := 0; i < prof.Cardinality; i++ {
			samples.appendFresh(eng, prof)
		}
	}

	out := newStringColData(numRows, numRows*prof.AvgStringLength)
	scale := float64(prof.AvgRunLength) / runShape
	for row := 0; row < numRows; row++ {
		if prof.Cardinality == 0 {
			out.appendFresh(eng, prof)
		} else {
			out.copyFrom(samples, eng.IntN(prof.Cardinality))
		}

		if prof.AvgRunLength > 1 {
			runLen := min(numRows-row, int(math.Round(eng.Erlang(runShape, scale))))
			for off := 1; off < runLen; off++ {
				out.copyFrom(out, row)
			}
			row += max(runLen-1, 0)
		}
	}

	return newStringArray(numRows, out.chars, out.offsets, out.mask), nil
}
