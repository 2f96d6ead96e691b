package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUDevice is the concrete wgpu-backed implementation of Device,
// grounded on voxelrt/rt/gpu/manager.go's texture-array setup
// (CreateShadowMapTextures) and gpu_operations.go's createTextureFromAsset.
type WGPUDevice struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	maxArrayLayers int
}

// NewWGPUDevice wraps an existing wgpu device/queue pair. maxArrayLayers
// should come from the adapter's reported limits; the host is expected to
// have already created the device (see cmd/spritebake).
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue, maxArrayLayers int) *WGPUDevice {
	if maxArrayLayers <= 0 {
		maxArrayLayers = 256
	}
	return &WGPUDevice{Device: device, Queue: queue, maxArrayLayers: maxArrayLayers}
}

func (d *WGPUDevice) MaxArrayTextureLayers() int { return d.maxArrayLayers }

type wgpuTexture struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (d *WGPUDevice) AllocateR16UIArray(width, height, layerCount int) (TextureHandle, error) {
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "atlas-r16ui-array",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: uint32(layerCount),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR16Uint,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: allocate r16ui array: %w", err)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Format:          wgpu.TextureFormatR16Uint,
		Dimension:       wgpu.TextureViewDimension2DArray,
		ArrayLayerCount: uint32(layerCount),
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: view r16ui array: %w", err)
	}
	return &wgpuTexture{tex: tex, view: view}, nil
}

func (d *WGPUDevice) UploadSubregion(texh TextureHandle, layer, x, y, w, h, rowLengthHint int, data []uint16) error {
	t, ok := texh.(*wgpuTexture)
	if !ok || t == nil {
		return fmt.Errorf("gpu: invalid texture handle")
	}
	err := d.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: t.tex,
			Origin:  wgpu.Origin3D{X: uint32(x), Y: uint32(y), Z: uint32(layer)},
		},
		wgpu.ToBytes(data),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rowLengthHint * 2),
			RowsPerImage: uint32(h),
		},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpu: upload subregion: %w", err)
	}
	return nil
}

func (d *WGPUDevice) UploadRGBA2D(width, height int, rgba []byte) (TextureHandle, error) {
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "combined-palette",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: allocate palette texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: view palette texture: %w", err)
	}
	err = d.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex},
		rgba,
		&wgpu.TextureDataLayout{BytesPerRow: uint32(width * 4), RowsPerImage: uint32(height)},
		&wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: upload palette texture: %w", err)
	}
	return &wgpuTexture{tex: tex, view: view}, nil
}

func (d *WGPUDevice) SetNearestFilter(texh TextureHandle) error {
	// Filtering is a sampler property in wgpu, created alongside the bind
	// group that samples this texture; recorded here only as a no-op
	// placeholder satisfying the contract until the sampler is wired into
	// a render pass by the consuming renderer.
	return nil
}

func (d *WGPUDevice) SetClampToEdge(texh TextureHandle) error { return nil }

func (d *WGPUDevice) Bind(unit int, texh TextureHandle) error { return nil }

func (d *WGPUDevice) Delete(texh TextureHandle) error {
	t, ok := texh.(*wgpuTexture)
	if !ok || t == nil {
		return fmt.Errorf("gpu: invalid texture handle")
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.tex != nil {
		t.tex.Release()
	}
	return nil
}
