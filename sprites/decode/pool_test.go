package decode

import (
	"testing"

	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/stretchr/testify/require"
)

func TestPoolSizeCappedAtEight(t *testing.T) {
	p := New(100, nil)
	defer p.Destroy()
	require.LessOrEqual(t, p.Size(), MaxWorkers)
}

func TestPoolWarmUp(t *testing.T) {
	p := New(2, nil)
	defer p.Destroy()
	require.NoError(t, p.WarmUp())
}

func TestPoolDecodeRoundTrip(t *testing.T) {
	p := New(2, nil)
	defer p.Destroy()

	respCh := p.Decode(Request{
		ID:                 1,
		Bytes:              []byte{7, 8},
		Width:              2,
		Height:             1,
		Encoding:           container.EncodingRLE,
		PaletteGroupOffset: 10,
	})
	res := <-respCh
	require.NoError(t, res.Err)
	require.Equal(t, uint64(1), res.ID)
	require.Equal(t, []uint16{17, 18}, res.Indices)
}

func TestPoolDecodeManyOutOfOrder(t *testing.T) {
	p := New(4, nil)
	defer p.Destroy()

	const n = 50
	chans := make([]<-chan Result, n)
	for i := 0; i < n; i++ {
		chans[i] = p.Decode(Request{
			ID:       uint64(i),
			Bytes:    []byte{0, 4},
			Width:    2,
			Height:   2,
			Encoding: container.EncodingRLE,
		})
	}
	for i := 0; i < n; i++ {
		res := <-chans[i]
		require.NoError(t, res.Err)
		require.Equal(t, uint64(i), res.ID)
		require.Equal(t, []uint16{0, 0, 0, 0}, res.Indices)
	}
}

func TestPoolDestroyRejectsSubsequentRequests(t *testing.T) {
	p := New(2, nil)
	p.Destroy()

	respCh := p.Decode(Request{ID: 5})
	res := <-respCh
	require.ErrorIs(t, res.Err, ErrPoolDestroyed)
}
