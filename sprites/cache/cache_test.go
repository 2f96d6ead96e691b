package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleAtlas() *CachedAtlas {
	return &CachedAtlas{
		LayerCount:    1,
		MaxLayers:     4,
		PerLayerSlots: [][]Slot{{{X: 0, Y: 0, Width: 256, Height: 16}}},
		CombinedPaletteBytes: []byte{1, 2, 3, 4},
		PerFilePaletteOffsets: map[int]int{1: 0},
		PaletteTotalColors:    1,
		PaletteRows:           9,
		ImageBytes:            [][]uint16{{1, 2, 3, 4}},
	}
}

func TestCacheMissThenHit(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1<<30, false, nil)

	_, src := c.Get(7)
	require.Equal(t, SourceNone, src)

	c.Put(7, sampleAtlas())
	entry, src := c.Get(7)
	require.Equal(t, SourceMemory, src)
	require.Equal(t, 1, entry.LayerCount)
}

func TestCacheDurableRoundTripAfterMemoryClear(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1<<30, false, nil)
	c.Put(7, sampleAtlas())

	c.Clear() // simulate a fresh process: tier 1 empty, tier 2 intact

	entry, src := c.Get(7)
	require.Equal(t, SourceDurable, src)
	require.Equal(t, 1, entry.PaletteTotalColors)
	require.Equal(t, []byte{1, 2, 3, 4}, entry.CombinedPaletteBytes)
}

func TestCacheDisabledAlwaysMisses(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1<<30, true, nil)
	c.Put(7, sampleAtlas())

	_, src := c.Get(7)
	require.Equal(t, SourceNone, src)
}

func TestCacheSkipsDurableWriteAboveSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 4, false, nil) // 8 bytes of image data exceeds a 4-byte ceiling
	c.Put(7, sampleAtlas())

	c.Clear()
	_, src := c.Get(7)
	require.Equal(t, SourceNone, src) // durable write was skipped, so nothing to restore
}

func TestVersionInvalidationForcesMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1<<30, false, nil)
	c.Put(7, sampleAtlas())

	original := SchemaVersion
	SchemaVersion = original + 1
	entry, src := c.Get(7)
	require.Equal(t, SourceNone, src)
	require.Nil(t, entry)
	SchemaVersion = original

	// After the bump is reverted, the original entry is visible again.
	entry, src = c.Get(7)
	require.Equal(t, SourceMemory, src)
	require.Equal(t, 1, entry.LayerCount)
}
