package gen

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullMaskStartsAllValid(t *testing.T) {
	mask := NewNullMask(100)

	assert.Equal(t, 100, mask.Len())
	assert.Equal(t, 100, mask.ValidCount())
	assert.Zero(t, mask.NullCount())
	for row := 0; row < 100; row++ {
		require.True(t, mask.Valid(row))
	}
}

func TestNullMaskReset(t *testing.T) {
	mask := NewNullMask(64)

	mask.Reset(0)
	mask.Reset(31)
	mask.Reset(63)

	assert.False(t, mask.Valid(0))
	assert.False(t, mask.Valid(31))
	assert.False(t, mask.Valid(63))
	assert.True(t, mask.Valid(1))
	assert.True(t, mask.Valid(32))
	assert.Equal(t, 3, mask.NullCount())
	assert.Equal(t, 61, mask.ValidCount())

	// Resetting twice is idempotent.
	mask.Reset(31)
	assert.Equal(t, 3, mask.NullCount())
}

func TestNullMaskSizing(t *testing.T) {
	for _, rows := range []int{0, 1, 7, 8, 9, 63, 64, 65, 1000} {
		mask := NewNullMask(rows)
		assert.Len(t, mask.Bytes(), int(bitutil.BytesForBits(int64(rows))), "rows=%d", rows)
		assert.Equal(t, rows, mask.ValidCount(), "rows=%d", rows)
	}
}
