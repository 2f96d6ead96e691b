package gpu

import "sync/atomic"

// Null is a no-op Device used by headless tests and by components that
// need a Device but have no real GPU behind them. It never fails and
// records nothing beyond a layer-count limit.
type Null struct {
	MaxLayers int
	nextID    atomic.Int64
}

// NewNull returns a Null device with the given reported layer capacity.
func NewNull(maxLayers int) *Null {
	if maxLayers <= 0 {
		maxLayers = 64
	}
	return &Null{MaxLayers: maxLayers}
}

type nullTexture struct{ id int64 }

func (n *Null) MaxArrayTextureLayers() int { return n.MaxLayers }

func (n *Null) AllocateR16UIArray(width, height, layerCount int) (TextureHandle, error) {
	return &nullTexture{id: n.nextID.Add(1)}, nil
}

func (n *Null) UploadSubregion(tex TextureHandle, layer, x, y, w, h, rowLengthHint int, data []uint16) error {
	return nil
}

func (n *Null) UploadRGBA2D(width, height int, rgba []byte) (TextureHandle, error) {
	return &nullTexture{id: n.nextID.Add(1)}, nil
}

func (n *Null) SetNearestFilter(tex TextureHandle) error { return nil }
func (n *Null) SetClampToEdge(tex TextureHandle) error   { return nil }
func (n *Null) Bind(unit int, tex TextureHandle) error   { return nil }
func (n *Null) Delete(tex TextureHandle) error           { return nil }
