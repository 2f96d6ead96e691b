package palette

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gekko3d/isogekko/sprites/gpu"
)

// TintRows is the fixed number of per-player tinted rows appended after
// the neutral row when the combined palette is streamed to the GPU (spec
// §4.3 "palette rows support a neutral row plus a fixed number of
// per-player tinted rows"). The exact tinting formula is an
// implementation detail left open by the spec; see DESIGN.md.
const TintRows = 8

var (
	// ErrSchemaMismatch is returned by Register when a file_id is
	// re-registered with different bytes (spec §4.3 invariant).
	ErrSchemaMismatch = errors.New("palette: re-registration with different bytes")
)

// Combined is the orchestrator-owned lookup produced by appending every
// file's palette end to end (spec §4.3).
type Combined struct {
	mu sync.Mutex

	bytes       []byte
	offsets     map[int]int // file id -> base color offset
	rawByFile   map[int][]byte
	totalColors int
}

// NewCombined returns an empty combined palette.
func NewCombined() *Combined {
	return &Combined{
		offsets:   make(map[int]int),
		rawByFile: make(map[int][]byte),
	}
}

// Register appends fileID's palette bytes if not already present. A
// second registration of the same file_id with different bytes is a
// schema error; with identical bytes it is a harmless no-op (insert-once
// semantics, spec §4.3).
func (c *Combined) Register(fileID int, rgba []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.rawByFile[fileID]; ok {
		if !bytesEqual(existing, rgba) {
			return fmt.Errorf("%w: file %d", ErrSchemaMismatch, fileID)
		}
		return nil
	}

	base := c.totalColors
	c.offsets[fileID] = base
	stored := make([]byte, len(rgba))
	copy(stored, rgba)
	c.rawByFile[fileID] = stored
	c.bytes = append(c.bytes, stored...)
	c.totalColors += len(rgba) / BytesPerColor
	return nil
}

// RestoreCombined reconstructs a Combined straight from a cache entry's
// already-merged bytes, skipping the per-file Register bookkeeping (spec
// §4.8 "Install": "reconstruct the combined palette" from persisted
// bytes). A restored Combined must not be Register-ed into again for
// registration-order files, since rawByFile starts empty; a warm race
// load never re-registers, so this is not exercised in practice.
func RestoreCombined(bytes []byte, offsets map[int]int, totalColors int) *Combined {
	c := NewCombined()
	c.bytes = append([]byte(nil), bytes...)
	for fileID, off := range offsets {
		c.offsets[fileID] = off
	}
	c.totalColors = totalColors
	return c
}

// Offset returns the base color offset for fileID, or false if unknown.
func (c *Combined) Offset(fileID int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	off, ok := c.offsets[fileID]
	return off, ok
}

// OffsetOrZero mirrors the packer's substitution behaviour (spec §4.3
// invariant: "the packer substitutes 0 and continues").
func (c *Combined) OffsetOrZero(fileID int) int {
	off, ok := c.Offset(fileID)
	if !ok {
		return 0
	}
	return off
}

// Offsets returns a copy of the file-id -> base-offset map, for cache
// serialization (spec §6 "palette_offsets: map file-id -> base-offset").
func (c *Combined) Offsets() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int, len(c.offsets))
	for k, v := range c.offsets {
		out[k] = v
	}
	return out
}

// TotalColors is the combined palette's width in colors.
func (c *Combined) TotalColors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalColors
}

// Rows is the neutral row plus the fixed tinted-row count.
func (c *Combined) Rows() int { return 1 + TintRows }

// Bytes returns a copy of the raw neutral-row RGBA bytes, in file
// registration order.
func (c *Combined) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.bytes))
	copy(out, c.bytes)
	return out
}

// textureBytes lays out the full width x Rows() RGBA image: row 0 is the
// neutral palette, rows 1..TintRows are a simple brightness tint of row 0
// (placeholder for a per-player team-color shift applied by the renderer
// shader; see DESIGN.md for why the exact formula is left unspecified).
func (c *Combined) textureBytes() (width, height int, data []byte) {
	c.mu.Lock()
	raw := append([]byte(nil), c.bytes...)
	width = c.totalColors
	c.mu.Unlock()

	height = 1 + TintRows
	data = make([]byte, width*BytesPerColor*height)
	copy(data, raw)

	for row := 1; row <= TintRows; row++ {
		factor := 1.0 - float64(row)/float64(TintRows+1)*0.5
		dst := data[row*width*BytesPerColor : (row+1)*width*BytesPerColor]
		for i := 0; i < len(raw); i += BytesPerColor {
			dst[i+0] = scale(raw[i+0], factor)
			dst[i+1] = scale(raw[i+1], factor)
			dst[i+2] = scale(raw[i+2], factor)
			dst[i+3] = raw[i+3]
		}
	}
	return width, height, data
}

func scale(v byte, factor float64) byte {
	f := float64(v) * factor
	if f < 0 {
		f = 0
	}
	if f > 255 {
		f = 255
	}
	return byte(f)
}

// Upload streams the combined palette to a 2D RGBA texture (spec §4.3
// "upload(gpu)").
func (c *Combined) Upload(dev gpu.Device) (gpu.TextureHandle, error) {
	width, height, data := c.textureBytes()
	if width == 0 {
		width = 1
	}
	return dev.UploadRGBA2D(width, height, data)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
