package gen

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// NullMask is an Arrow-format validity bitmap: one bit per row in LSB order,
// 1 meaning valid. Masks start all-valid and generation only ever clears
// bits, so no set operation exists. The raw bytes feed Arrow array
// construction directly.
type NullMask struct {
	bits []byte
	rows int
}

// NewNullMask returns an all-valid mask covering rows bits.
func NewNullMask(rows int) *NullMask {
	bits := make([]byte, bitutil.BytesForBits(int64(rows)))
	for i := range bits {
		bits[i] = 0xFF
	}
	return &NullMask{bits: bits, rows: rows}
}

// Len returns the number of rows the mask covers.
func (m *NullMask) Len() int {
	return m.rows
}

// Valid reports whether the row's bit is set.
func (m *NullMask) Valid(row int) bool {
	return bitutil.BitIsSet(m.bits, row)
}

// Reset clears the row's bit, marking the row invalid.
func (m *NullMask) Reset(row int) {
	bitutil.ClearBit(m.bits, row)
}

// ValidCount returns the number of set bits within the mask's row range.
func (m *NullMask) ValidCount() int {
	return bitutil.CountSetBits(m.bits, 0, m.rows)
}

// NullCount returns the number of cleared bits within the mask's row range.
func (m *NullMask) NullCount() int {
	return m.rows - m.ValidCount()
}

// Bytes returns the backing bitmap. The caller must not mutate it after
// handing it to an array builder.
func (m *NullMask) Bytes() []byte {
	return m.bits
}
