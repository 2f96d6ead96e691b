package rle

import (
	"testing"

	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/stretchr/testify/require"
)

func TestEmptyPaletteBake(t *testing.T) {
	// Scenario 1: 2x2 container, RLE body [0,4] (four transparent pixels).
	out := Decode(Request{
		Body:     []byte{0, 4},
		Width:    2,
		Height:   2,
		Encoding: container.EncodingRLE,
	})
	require.Equal(t, []uint16{0, 0, 0, 0}, out)
}

func TestLiteralBake(t *testing.T) {
	// Scenario 2: 2x1 container, RLE body [7,8]; palette_group_offset=10.
	out := Decode(Request{
		Body:               []byte{7, 8},
		Width:              2,
		Height:             1,
		Encoding:           container.EncodingRLE,
		PaletteGroupOffset: 10,
	})
	require.Equal(t, []uint16{17, 18}, out)
}

func TestSentinelPreservation(t *testing.T) {
	// All-literal bytes (>=2) never produce 0 or 1 in the output.
	out := Decode(Request{
		Body:     []byte{2, 3, 4, 5},
		Width:    4,
		Height:   1,
		Encoding: container.EncodingRLE,
	})
	for _, v := range out {
		require.NotEqual(t, uint16(0), v)
		require.NotEqual(t, uint16(1), v)
	}

	// A sentinel run of 0 produces 0 at exactly those positions.
	out = Decode(Request{
		Body:     []byte{0, 2, 5},
		Width:    3,
		Height:   1,
		Encoding: container.EncodingRLE,
	})
	require.Equal(t, uint16(0), out[0])
	require.Equal(t, uint16(0), out[1])
	require.NotEqual(t, uint16(0), out[2])
}

func TestTruncatedInputZeroFills(t *testing.T) {
	out := Decode(Request{
		Body:     []byte{5}, // literal byte but then input ends
		Width:    4,
		Height:   1,
		Encoding: container.EncodingRLE,
	})
	require.Len(t, out, 4)
	require.Equal(t, uint16(5), out[0])
	require.Equal(t, []uint16{0, 0, 0}, out[1:])
}

func TestOversizedInputStopsAtTerminalPixel(t *testing.T) {
	out := Decode(Request{
		Body:     []byte{0, 10, 99, 99, 99}, // run of 10 transparent pixels, but only 4 needed
		Width:    2,
		Height:   2,
		Encoding: container.EncodingRLE,
	})
	require.Len(t, out, 4)
	require.Equal(t, []uint16{0, 0, 0, 0}, out)
}

func TestRawEncodingSkipsSentinels(t *testing.T) {
	out := Decode(Request{
		Body:     []byte{0, 1, 2}, // would be sentinels under RLE, but RAW treats every byte as literal
		Width:    3,
		Height:   1,
		Encoding: container.EncodingRAW,
	})
	require.Equal(t, []uint16{0, 1, 2}, out)
}

func TestTrimming(t *testing.T) {
	// 2-wide, 3-tall image; trim the first row, keep the other two.
	out := Decode(Request{
		Body:     []byte{2, 3, 4, 5, 6, 7},
		Width:    2,
		Height:   3,
		Encoding: container.EncodingRLE,
		TrimTop:  1,
	})
	require.Equal(t, []uint16{4, 5, 6, 7}, out)
}
