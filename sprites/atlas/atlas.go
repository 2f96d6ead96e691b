// Package atlas implements the 2D bin-packing allocator of spec §4.6: a
// stack of fixed-size layers, row-bucketed slot reuse, dirty-rectangle
// tracking, and GPU streaming. The layout style (fixed-capacity grid,
// explicit dirty tracking, upload-on-demand) is grounded on
// voxelrt/rt/gpu/manager.go's texture-array bookkeeping.
package atlas

import (
	"errors"
	"fmt"

	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/gpu"
)

var (
	// ErrAtlasFull is returned when a reservation cannot be placed even
	// after growing to the configured layer limit (spec §7).
	ErrAtlasFull = errors.New("atlas: full")
	// ErrTooLarge is returned when a sprite (plus padding) cannot fit in
	// any layer regardless of growth (spec §8 boundary: "a sprite of
	// dimensions L x L is rejected if 2*padding would push it past L").
	ErrTooLarge = errors.New("atlas: sprite too large for layer size")
	// ErrInvalidRegion is returned by Blit for a region outside the
	// atlas's current bounds.
	ErrInvalidRegion = errors.New("atlas: invalid region")
)

// Slot is a horizontal band inside a layer, uniform bucketed height,
// packed left to right (spec §3 "Row slot").
type Slot struct {
	Y          int
	Height     int
	CurrentX   int
	LayerWidth int
}

func (s Slot) RemainingWidth() int { return s.LayerWidth - s.CurrentX }

// Rect is a dirty rectangle, inclusive-exclusive ([MinX,MaxX) x
// [MinY,MaxY)). A layer with no pending writes has no Rect (nil).
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

func (r *Rect) expand(x0, y0, x1, y1 int) *Rect {
	if r == nil {
		return &Rect{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}
	}
	if x0 < r.MinX {
		r.MinX = x0
	}
	if y0 < r.MinY {
		r.MinY = y0
	}
	if x1 > r.MaxX {
		r.MaxX = x1
	}
	if y1 > r.MaxY {
		r.MaxY = y1
	}
	return r
}

// Region is one allocated rectangle within a layer; carries both pixel
// and UV coordinates. Once returned from Reserve it is immutable (spec
// §3 "Reserved region").
type Region struct {
	LayerIndex int
	X, Y, W, H int
	U0, V0, U1, V1 float32
}

type layerState struct {
	bytes []uint16
	slots []Slot
	dirty *Rect
}

// Packer is the atlas allocator. It owns every layer's pixel buffer and
// is owned exclusively by the orchestrator (spec §5): no worker ever
// writes to it.
type Packer struct {
	cfg           config.Config
	maxLayers     int
	layers        []*layerState
	gpuLayerCount int
	texture       gpu.TextureHandle
}

// New creates an empty atlas. maxLayers should already be clamped to the
// GPU's reported array-layer capacity by the caller (spec §4.8 step 4).
func New(cfg config.Config, maxLayers int) *Packer {
	if maxLayers < 1 {
		maxLayers = 1
	}
	return &Packer{cfg: cfg.Normalize(), maxLayers: maxLayers}
}

func ceilToMultiple(v, m int) int {
	if m <= 0 {
		return v
	}
	if v <= 0 {
		return m
	}
	return ((v + m - 1) / m) * m
}

func (p *Packer) allocateLayer() error {
	if len(p.layers) >= p.maxLayers {
		return ErrAtlasFull
	}
	L := p.cfg.LayerSize
	p.layers = append(p.layers, &layerState{bytes: make([]uint16, L*L)})
	return nil
}

// Reserve allocates a padded rectangle for a w x h sprite, following the
// exact algorithm of spec §4.6 "Reservation": only the most recently
// allocated layer is ever searched or grown into; earlier layers are
// frozen once the stack advances past them.
func (p *Packer) Reserve(w, h int) (Region, error) {
	if w <= 0 || h <= 0 {
		return Region{}, fmt.Errorf("atlas: invalid sprite dimensions %dx%d", w, h)
	}
	pad := p.cfg.PaddingPixels
	L := p.cfg.LayerSize
	pw := w + 2*pad
	ph := h + 2*pad
	bh := ceilToMultiple(ph, p.cfg.RowBucketPixels)

	if pw > L || bh > L {
		return Region{}, ErrTooLarge
	}

	if len(p.layers) == 0 {
		if err := p.allocateLayer(); err != nil {
			return Region{}, err
		}
	}

	for {
		idx := len(p.layers) - 1
		layer := p.layers[idx]

		for i := range layer.slots {
			s := &layer.slots[i]
			if s.Height == bh && s.RemainingWidth() >= pw {
				return p.place(idx, s, w, h, pad, L), nil
			}
		}

		freeY := 0
		if n := len(layer.slots); n > 0 {
			last := layer.slots[n-1]
			freeY = last.Y + last.Height
		}
		if freeY+bh <= L {
			layer.slots = append(layer.slots, Slot{Y: freeY, Height: bh, CurrentX: 0, LayerWidth: L})
			s := &layer.slots[len(layer.slots)-1]
			return p.place(idx, s, w, h, pad, L), nil
		}

		if err := p.allocateLayer(); err != nil {
			return Region{}, err
		}
	}
}

func (p *Packer) place(layerIdx int, s *Slot, w, h, pad, L int) Region {
	x := s.CurrentX + pad
	y := s.Y + pad
	s.CurrentX += w + 2*pad

	return Region{
		LayerIndex: layerIdx,
		X:          x,
		Y:          y,
		W:          w,
		H:          h,
		U0:         (float32(x) + 0.5) / float32(L),
		V0:         (float32(y) + 0.5) / float32(L),
		U1:         (float32(x+w) - 0.5) / float32(L),
		V1:         (float32(y+h) - 0.5) / float32(L),
	}
}

// Blit copies region.H rows of region.W 16-bit indices into the layer and
// expands that layer's dirty rectangle (spec §4.6 "Blit").
func (p *Packer) Blit(region Region, indices []uint16) error {
	if region.LayerIndex < 0 || region.LayerIndex >= len(p.layers) {
		return ErrInvalidRegion
	}
	if len(indices) < region.W*region.H {
		return fmt.Errorf("%w: indices too short for %dx%d", ErrInvalidRegion, region.W, region.H)
	}
	layer := p.layers[region.LayerIndex]
	L := p.cfg.LayerSize
	if region.X < 0 || region.Y < 0 || region.X+region.W > L || region.Y+region.H > L {
		return ErrInvalidRegion
	}

	for row := 0; row < region.H; row++ {
		srcOff := row * region.W
		dstOff := (region.Y+row)*L + region.X
		copy(layer.bytes[dstOff:dstOff+region.W], indices[srcOff:srcOff+region.W])
	}
	layer.dirty = layer.dirty.expand(region.X, region.Y, region.X+region.W, region.Y+region.H)
	return nil
}

// Update streams pending changes to the GPU (spec §4.6 "Upload"): a full
// re-upload of every layer when the layer count has grown since the last
// call, otherwise just each layer's dirty sub-rectangle.
func (p *Packer) Update(dev gpu.Device) error {
	L := p.cfg.LayerSize
	if len(p.layers) != p.gpuLayerCount {
		tex, err := dev.AllocateR16UIArray(L, L, len(p.layers))
		if err != nil {
			return fmt.Errorf("atlas: allocate texture array: %w", err)
		}
		if p.texture != nil {
			_ = dev.Delete(p.texture)
		}
		p.texture = tex
		if err := dev.SetNearestFilter(tex); err != nil {
			return err
		}
		if err := dev.SetClampToEdge(tex); err != nil {
			return err
		}
		for i, layer := range p.layers {
			if err := dev.UploadSubregion(tex, i, 0, 0, L, L, L, layer.bytes); err != nil {
				return fmt.Errorf("atlas: full upload layer %d: %w", i, err)
			}
			layer.dirty = nil
		}
		p.gpuLayerCount = len(p.layers)
		return nil
	}

	for i, layer := range p.layers {
		if layer.dirty == nil {
			continue
		}
		d := layer.dirty
		w := d.MaxX - d.MinX
		h := d.MaxY - d.MinY
		sub := make([]uint16, w*h)
		for row := 0; row < h; row++ {
			srcOff := (d.MinY+row)*L + d.MinX
			copy(sub[row*w:(row+1)*w], layer.bytes[srcOff:srcOff+w])
		}
		if err := dev.UploadSubregion(p.texture, i, d.MinX, d.MinY, w, h, w, sub); err != nil {
			return fmt.Errorf("atlas: partial upload layer %d: %w", i, err)
		}
		layer.dirty = nil
	}
	return nil
}

// ExtractIndices copies region's rectangle of raw palette indices out of
// its layer, for the outbound extraction accessor (spec §6 "extract").
func (p *Packer) ExtractIndices(region Region) ([]uint16, error) {
	if region.LayerIndex < 0 || region.LayerIndex >= len(p.layers) {
		return nil, ErrInvalidRegion
	}
	layer := p.layers[region.LayerIndex]
	L := p.cfg.LayerSize
	if region.X < 0 || region.Y < 0 || region.X+region.W > L || region.Y+region.H > L {
		return nil, ErrInvalidRegion
	}
	out := make([]uint16, region.W*region.H)
	for row := 0; row < region.H; row++ {
		srcOff := (region.Y+row)*L + region.X
		copy(out[row*region.W:(row+1)*region.W], layer.bytes[srcOff:srcOff+region.W])
	}
	return out, nil
}

// LayerCount reports the number of allocated layers.
func (p *Packer) LayerCount() int { return len(p.layers) }

// LayerBytes exposes layer i's raw pixel buffer, for cache serialization.
func (p *Packer) LayerBytes(i int) []uint16 { return p.layers[i].bytes }

// LayerSlots exposes layer i's row slots, for cache serialization.
func (p *Packer) LayerSlots(i int) []Slot {
	out := make([]Slot, len(p.layers[i].slots))
	copy(out, p.layers[i].slots)
	return out
}

// Texture returns the current GPU texture handle, or nil if Update has
// never run.
func (p *Packer) Texture() gpu.TextureHandle { return p.texture }

// Restore reconstructs a Packer from previously-saved layer bytes and
// slots (spec §4.6 "Retain-on-cache"). gpuLayerCount is forced to zero so
// the next Update does a full re-upload.
func Restore(cfg config.Config, maxLayers int, layerBytes [][]uint16, layerSlots [][]Slot) *Packer {
	p := New(cfg, maxLayers)
	for i, bytes := range layerBytes {
		ls := &layerState{bytes: bytes}
		if i < len(layerSlots) {
			ls.slots = append([]Slot(nil), layerSlots[i]...)
		}
		p.layers = append(p.layers, ls)
	}
	p.gpuLayerCount = 0
	return p
}
