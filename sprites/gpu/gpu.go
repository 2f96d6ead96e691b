// Package gpu defines the GPU abstraction this pipeline consumes (spec §6
// "Inbound from the GPU layer"). The pipeline never renders; it only
// uploads texture data and queries limits through this interface.
package gpu

// TextureHandle is an opaque reference to a GPU texture. The concrete
// type is whatever the Device implementation issues; callers only ever
// pass it back to the same Device.
type TextureHandle any

// Device is the external GPU collaborator's contract. Implementations
// must be safe to call from a single driver goroutine only: per spec §5,
// GPU operations are synchronous from the orchestrator's point of view
// and no worker ever touches the GPU.
type Device interface {
	// MaxArrayTextureLayers reports the GPU's maximum texture-array
	// layer count.
	MaxArrayTextureLayers() int

	// AllocateR16UIArray creates (or replaces) the atlas's backing 2D
	// texture array of R16Uint single-channel palette indices.
	AllocateR16UIArray(width, height, layerCount int) (TextureHandle, error)

	// UploadSubregion uploads exactly the given sub-rectangle of one
	// layer. rowLengthHint is the number of uint16 elements per source
	// row (the row-length hint of spec §4.6 "Upload").
	UploadSubregion(tex TextureHandle, layer, x, y, w, h, rowLengthHint int, data []uint16) error

	// UploadRGBA2D uploads the combined-palette texture in full.
	UploadRGBA2D(width, height int, rgba []byte) (TextureHandle, error)

	// SetNearestFilter and SetClampToEdge configure sampling for a
	// texture; the atlas always uses nearest-neighbour + clamp (spec
	// §4.6 "Filtering").
	SetNearestFilter(tex TextureHandle) error
	SetClampToEdge(tex TextureHandle) error

	// Bind attaches a texture to a texture unit for sampling.
	Bind(unit int, tex TextureHandle) error

	// Delete releases GPU resources for a texture.
	Delete(tex TextureHandle) error
}
