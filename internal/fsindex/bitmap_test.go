package fsindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_SetAndIsSet(t *testing.T) {
	b := NewBitmap()
	b.Set(3)
	b.Set(7)

	assert.True(t, b.IsSet(3))
	assert.True(t, b.IsSet(7))
	assert.False(t, b.IsSet(4))
}

func TestBitmap_BitSizeIsOnePastMaximum(t *testing.T) {
	b := NewBitmap()
	assert.Equal(t, 0, b.BitSize())

	b.Set(5)
	assert.Equal(t, 6, b.BitSize())
}

func TestBitmap_SerializeReadBitmapRoundTrip(t *testing.T) {
	b := NewBitmap()
	b.Set(0)
	b.Set(4)
	b.Set(100)

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))

	decoded, err := ReadBitmap(buf.Bytes(), buf.Len())
	require.NoError(t, err)

	assert.True(t, decoded.IsSet(0))
	assert.True(t, decoded.IsSet(4))
	assert.True(t, decoded.IsSet(100))
	assert.False(t, decoded.IsSet(1))
}

func TestReadBitmap_RejectsWrongExpectedLength(t *testing.T) {
	b := NewBitmap()
	b.Set(1)

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))

	_, err := ReadBitmap(buf.Bytes(), buf.Len()+1)
	assert.Error(t, err)
}

func TestBitmap_ForEachSetVisitsInAscendingOrder(t *testing.T) {
	b := NewBitmap()
	b.Set(9)
	b.Set(2)
	b.Set(5)

	var seen []int
	b.ForEachSet(func(pos int) { seen = append(seen, pos) })

	assert.Equal(t, []int{2, 5, 9}, seen)
}
