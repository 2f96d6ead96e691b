package palette

import (
	"testing"

	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsMalformedLength(t *testing.T) {
	_, err := Open(1, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestOpenColorAccessor(t *testing.T) {
	tbl, err := Open(1, []byte{10, 20, 30, 255, 40, 50, 60, 128})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumColors())
	r, g, b, a, ok := tbl.Color(1)
	require.True(t, ok)
	require.Equal(t, byte(40), r)
	require.Equal(t, byte(50), g)
	require.Equal(t, byte(60), b)
	require.Equal(t, byte(128), a)

	_, _, _, _, ok = tbl.Color(2)
	require.False(t, ok)
}

func TestCombinedRegisterInsertOnce(t *testing.T) {
	c := NewCombined()
	bytes1 := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, c.Register(10, bytes1))
	off, ok := c.Offset(10)
	require.True(t, ok)
	require.Equal(t, 0, off)
	require.Equal(t, 2, c.TotalColors())

	// Re-registering identical bytes is a no-op.
	require.NoError(t, c.Register(10, bytes1))
	require.Equal(t, 2, c.TotalColors())

	bytes2 := []byte{9, 9, 9, 9}
	require.NoError(t, c.Register(20, bytes2))
	off, ok = c.Offset(20)
	require.True(t, ok)
	require.Equal(t, 2, off)
	require.Equal(t, 3, c.TotalColors())
}

func TestCombinedRegisterSchemaMismatch(t *testing.T) {
	c := NewCombined()
	require.NoError(t, c.Register(1, []byte{1, 2, 3, 4}))
	err := c.Register(1, []byte{5, 6, 7, 8})
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestCombinedOffsetUnknownIsZeroSubstituted(t *testing.T) {
	c := NewCombined()
	_, ok := c.Offset(99)
	require.False(t, ok)
	require.Equal(t, 0, c.OffsetOrZero(99))
}

func TestCombinedUpload(t *testing.T) {
	c := NewCombined()
	require.NoError(t, c.Register(1, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	dev := gpu.NewNull(8)
	_, err := c.Upload(dev)
	require.NoError(t, err)
}
