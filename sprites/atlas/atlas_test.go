package atlas

import (
	"testing"

	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/stretchr/testify/require"
)

func testConfig(layerSize int) config.Config {
	cfg := config.Default()
	cfg.LayerSize = layerSize
	cfg.PaddingPixels = 1
	cfg.RowBucketPixels = 16
	return cfg.Normalize()
}

func TestReserveRowSharing(t *testing.T) {
	// Scenario 3: two sprites with the same bucketed height land on the
	// same row slot, side by side, when the row has remaining width.
	p := New(testConfig(256), 4)

	r1, err := p.Reserve(10, 10)
	require.NoError(t, err)
	r2, err := p.Reserve(12, 9)
	require.NoError(t, err)

	require.Equal(t, r1.LayerIndex, r2.LayerIndex)
	require.Equal(t, r1.Y, r2.Y)
	require.Less(t, r1.X, r2.X)
	require.GreaterOrEqual(t, r2.X, r1.X+r1.W+2*1)
}

func TestReserveNewRowOnHeightMismatch(t *testing.T) {
	p := New(testConfig(256), 4)

	r1, err := p.Reserve(10, 10)
	require.NoError(t, err)
	r2, err := p.Reserve(10, 30) // different bucket (16 vs 32)
	require.NoError(t, err)

	require.Equal(t, r1.LayerIndex, r2.LayerIndex)
	require.NotEqual(t, r1.Y, r2.Y)
	require.Greater(t, r2.Y, r1.Y)
}

func TestReserveGrowsLayerOnOverflow(t *testing.T) {
	// Scenario 4: a small layer size forces overflow into a new layer once
	// the first is exhausted.
	p := New(testConfig(32), 2)

	var last Region
	var err error
	for i := 0; i < 3; i++ {
		last, err = p.Reserve(30, 14)
		require.NoError(t, err)
	}
	require.Equal(t, 1, last.LayerIndex)
	require.Equal(t, 2, p.LayerCount())
}

func TestReserveFailsPastMaxLayers(t *testing.T) {
	p := New(testConfig(32), 1)

	// A 32-pixel layer with 16px row buckets holds exactly two rows of
	// this sprite's height; the third reservation has nowhere left to go
	// and, with maxLayers=1, cannot grow into a new layer either.
	_, err := p.Reserve(30, 14)
	require.NoError(t, err)
	_, err = p.Reserve(30, 14)
	require.NoError(t, err)
	_, err = p.Reserve(30, 14)
	require.ErrorIs(t, err, ErrAtlasFull)
}

func TestReserveRejectsOversizedSprite(t *testing.T) {
	p := New(testConfig(32), 4)

	_, err := p.Reserve(32, 10) // 32 + 2*padding > layer size
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestRegionsAreUniqueAndImmutable(t *testing.T) {
	p := New(testConfig(256), 4)

	seen := map[[3]int]bool{}
	for i := 0; i < 20; i++ {
		r, err := p.Reserve(8, 8)
		require.NoError(t, err)
		key := [3]int{r.LayerIndex, r.X, r.Y}
		require.False(t, seen[key], "region %v reused", key)
		seen[key] = true
	}
}

func TestBlitWritesIntoLayerAndMarksDirty(t *testing.T) {
	p := New(testConfig(64), 2)
	r, err := p.Reserve(2, 2)
	require.NoError(t, err)

	require.NoError(t, p.Blit(r, []uint16{11, 12, 13, 14}))

	bytes := p.LayerBytes(r.LayerIndex)
	L := 64
	require.Equal(t, uint16(11), bytes[r.Y*L+r.X])
	require.Equal(t, uint16(14), bytes[(r.Y+1)*L+r.X+1])
}

func TestBlitRejectsShortBuffer(t *testing.T) {
	p := New(testConfig(64), 2)
	r, err := p.Reserve(4, 4)
	require.NoError(t, err)

	err = p.Blit(r, []uint16{1, 2})
	require.ErrorIs(t, err, ErrInvalidRegion)
}

func TestUpdateFullUploadOnLayerGrowth(t *testing.T) {
	p := New(testConfig(32), 2)
	dev := gpu.NewNull(2)

	_, err := p.Reserve(10, 10)
	require.NoError(t, err)
	require.NoError(t, p.Update(dev))
	require.NotNil(t, p.Texture())
}

func TestUpdatePartialUploadOnDirtyOnly(t *testing.T) {
	p := New(testConfig(64), 2)
	dev := gpu.NewNull(2)

	r1, err := p.Reserve(4, 4)
	require.NoError(t, err)
	require.NoError(t, p.Blit(r1, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}))
	require.NoError(t, p.Update(dev))

	r2, err := p.Reserve(4, 4)
	require.NoError(t, err)
	require.NoError(t, p.Blit(r2, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}))
	require.NoError(t, p.Update(dev)) // same layer count: only the dirty rect streams
}

func TestRestoreReconstructsLayersForRetainOnCache(t *testing.T) {
	cfg := testConfig(32)
	bytes := make([]uint16, 32*32)
	bytes[0] = 42
	slots := []Slot{{Y: 0, Height: 16, CurrentX: 12, LayerWidth: 32}}

	p := Restore(cfg, 2, [][]uint16{bytes}, [][]Slot{slots})
	require.Equal(t, 1, p.LayerCount())
	require.Equal(t, uint16(42), p.LayerBytes(0)[0])

	r, err := p.Reserve(10, 14) // should reuse the restored slot (same bucket, room left)
	require.NoError(t, err)
	require.Equal(t, 0, r.LayerIndex)
	require.Equal(t, 1, r.Y) // padding offset within the restored row
}
