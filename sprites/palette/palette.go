// Package palette implements the per-file palette (spec §4.2) and the
// combined palette lookup (spec §4.3).
package palette

import (
	"errors"
	"fmt"
)

// BytesPerColor is the RGBA tuple width.
const BytesPerColor = 4

// Sentinel palette indices (spec §3 "Palette"): 0 is always transparent,
// 1 is always shadow. Real colors start at 2.
const (
	IndexTransparent = 0
	IndexShadow      = 1
)

var ErrMalformed = errors.New("palette: byte length not a multiple of 4")

// Table is one file-set's raw RGBA palette.
type Table struct {
	FileID int
	RGBA   []byte // len() % 4 == 0; entry i occupies RGBA[4*i:4*i+4]
}

// Open decodes a palette file's bytes into a Table. The container format
// stores palettes as a flat array of RGBA tuples; no header or index
// chunk is required beyond that, keeping this accessor a pure function
// over already-read bytes per the component design in spec §4.1/§4.2.
func Open(fileID int, data []byte) (*Table, error) {
	if len(data)%BytesPerColor != 0 {
		return nil, fmt.Errorf("%w: file %d has %d bytes", ErrMalformed, fileID, len(data))
	}
	rgba := make([]byte, len(data))
	copy(rgba, data)
	return &Table{FileID: fileID, RGBA: rgba}, nil
}

// NumColors reports how many RGBA entries this table holds.
func (t *Table) NumColors() int { return len(t.RGBA) / BytesPerColor }

// Color returns the RGBA tuple at index i.
func (t *Table) Color(i int) (r, g, b, a byte, ok bool) {
	if i < 0 || i >= t.NumColors() {
		return 0, 0, 0, 0, false
	}
	off := i * BytesPerColor
	return t.RGBA[off], t.RGBA[off+1], t.RGBA[off+2], t.RGBA[off+3], true
}
