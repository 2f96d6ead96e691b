// Package config holds the recognised startup options for the sprite
// pipeline (spec §6 "Configuration"), read once at start by the host.
package config

// Config is populated by the host application and passed down through
// the orchestrator to every component that needs a tunable.
type Config struct {
	// LayerSize is the fixed side length of each atlas layer, in pixels.
	LayerSize int
	// InitialMaxLayers caps how many layers the atlas may grow to; the
	// orchestrator further clamps this to the GPU's reported limit.
	InitialMaxLayers int
	// DecoderParallelism bounds the decoder pool worker count (1..8).
	DecoderParallelism int
	// TrimTop and TrimBottom are rows removed from every sprite to elide
	// legacy source artefacts.
	TrimTop    int
	TrimBottom int
	// SlowOpThresholdMS is telemetry-only: phases slower than this are
	// flagged when logged.
	SlowOpThresholdMS int
	// CacheDisabled turns off both cache tiers.
	CacheDisabled bool
	// DurableCacheSizeCeilingBytes: skip the durable write above this.
	DurableCacheSizeCeilingBytes int64
	// PaddingPixels is the transparent inset around each sprite.
	PaddingPixels int
	// RowBucketPixels is the row-height packing granularity.
	RowBucketPixels int
	// WorldUnitsPerPixel converts a sprite's pixel anchor/extent into the
	// world-space units the registry stores (spec §3 "Sprite entry":
	// "one pixel equals a fixed fraction of a world unit").
	WorldUnitsPerPixel float32
}

// Default returns the spec-mandated defaults.
func Default() Config {
	return Config{
		LayerSize:                    4096,
		InitialMaxLayers:             64,
		DecoderParallelism:           8,
		TrimTop:                      1,
		TrimBottom:                   5,
		SlowOpThresholdMS:            250,
		CacheDisabled:                false,
		DurableCacheSizeCeilingBytes: 256 * 1024 * 1024,
		PaddingPixels:                1,
		RowBucketPixels:              16,
		WorldUnitsPerPixel:           1.0 / 32.0,
	}
}

// Normalize clamps fields to their valid ranges, filling in defaults for
// anything left at its zero value.
func (c Config) Normalize() Config {
	d := Default()
	if c.LayerSize <= 0 {
		c.LayerSize = d.LayerSize
	}
	if c.InitialMaxLayers <= 0 {
		c.InitialMaxLayers = d.InitialMaxLayers
	}
	if c.DecoderParallelism <= 0 {
		c.DecoderParallelism = d.DecoderParallelism
	}
	if c.DecoderParallelism > 8 {
		c.DecoderParallelism = 8
	}
	if c.PaddingPixels <= 0 {
		c.PaddingPixels = d.PaddingPixels
	}
	if c.RowBucketPixels <= 0 {
		c.RowBucketPixels = d.RowBucketPixels
	}
	if c.DurableCacheSizeCeilingBytes <= 0 {
		c.DurableCacheSizeCeilingBytes = d.DurableCacheSizeCeilingBytes
	}
	if c.WorldUnitsPerPixel <= 0 {
		c.WorldUnitsPerPixel = d.WorldUnitsPerPixel
	}
	return c
}
