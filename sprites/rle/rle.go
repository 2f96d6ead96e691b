// Package rle decodes a single image's byte stream into a row-aligned
// array of 16-bit palette indices (spec §4.4). The decode style — a flat
// cursor over the source bytes with run-length literal/repeat branches —
// is grounded on the teacher pack's Ikemen-GO Rle8Decode/Rle5Decode
// (other_examples) and on vox.go's manual little-endian cursors.
package rle

import "github.com/gekko3d/isogekko/sprites/container"

// Sentinel decoded values, mirrored from palette.IndexTransparent/Shadow
// so this package has no dependency on the palette package.
const (
	SentinelTransparent = 0
	SentinelShadow      = 1
)

// Request bundles everything Decode needs to turn one image payload into
// pixel indices.
type Request struct {
	Body               []byte
	Width, Height      int
	Encoding           container.EncodingType
	PaletteGroupOffset uint16
	TrimTop, TrimBottom int
}

// Decode runs the RLE/RAW algorithm of spec §4.4 and returns a buffer of
// width*(height-trimTop-trimBottom) indices. Truncated input is tolerated
// (the remainder is left zero-filled/transparent); oversized input is
// ignored past the terminal pixel.
func Decode(req Request) []uint16 {
	storedHeight := req.Height - req.TrimTop - req.TrimBottom
	if storedHeight < 0 {
		storedHeight = 0
	}
	out := make([]uint16, req.Width*storedHeight)

	totalPixels := req.Width * req.Height
	storeStart := req.TrimTop * req.Width
	storeEnd := storeStart + req.Width*storedHeight

	body := req.Body
	pos := 0
	emitted := 0
	raw := req.Encoding == container.EncodingRAW

	nextByte := func() (byte, bool) {
		if pos >= len(body) {
			return 0, false
		}
		v := body[pos]
		pos++
		return v, true
	}

	store := func(value uint16) {
		if emitted >= storeStart && emitted < storeEnd {
			out[emitted-storeStart] = value
		}
		emitted++
	}

	for emitted < totalPixels {
		v, ok := nextByte()
		if !ok {
			break // truncated input: remaining slots stay zero (transparent)
		}

		if !raw && v <= 1 {
			n, ok := nextByte()
			if !ok {
				break
			}
			for i := 0; i < int(n) && emitted < totalPixels; i++ {
				store(uint16(v))
			}
			continue
		}

		store(req.PaletteGroupOffset + uint16(v))
	}

	return out
}
