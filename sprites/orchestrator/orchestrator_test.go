package orchestrator

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/cache"
	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/gekko3d/isogekko/sprites/decode"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/gekko3d/isogekko/sprites/registry"
)

// buildContainer assembles a minimal one-job/one-direction/one-frame
// container, mirroring container_test.go's buildFileSet but local to this
// package (container's helper is unexported).
func buildContainer(body []byte, encoding container.EncodingType, width, height uint16) []byte {
	var imageHeader []byte
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, width)
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, height)
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, 0)
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, 0)
	imageHeader = append(imageHeader, byte(encoding))
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, 0)
	imageHeader = binary.LittleEndian.AppendUint32(imageHeader, uint32(len(body)))
	imageHeader = append(imageHeader, body...)

	var buf []byte
	buf = append(buf, "SPRC"...)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, container.FlagHasDirections)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(imageHeader)))
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, imageHeader...)
	return buf
}

func testOrchestrator(t *testing.T, dev gpu.Device) (*Orchestrator, *assetio.MemorySource) {
	t.Helper()
	source := assetio.NewMemorySource()
	source.Put(1, buildContainer([]byte{2, 3, 4, 5}, container.EncodingRLE, 2, 2))

	paletteSource := assetio.NewMemorySource()
	paletteSource.Put(1, []byte{10, 20, 30, 255, 40, 50, 60, 255})

	cfg := config.Default()
	cfg.TrimTop = 0
	cfg.TrimBottom = 0
	cfg.LayerSize = 64

	pool := decode.New(2, nil)
	t.Cleanup(pool.Destroy)

	c := cache.New(t.TempDir(), 1<<30, false, nil)
	o := New(cfg, source, paletteSource, pool, dev, c, 2, nil)
	return o, source
}

func TestLoadRaceBakesAndRegistersOneBuilding(t *testing.T) {
	dev := gpu.NewNull(2)
	o, _ := testOrchestrator(t, dev)

	result, err := o.LoadRace(BakeSpec{
		Race: 1,
		Buildings: []BuildingJob{
			{FileID: 1, JobIndex: 0, SubKind: 3, Stage: registry.BuildingCompleted},
		},
	})
	require.NoError(t, err)
	require.False(t, result.CacheHit)
	require.Equal(t, 1, result.SpritesBaked)

	entry, ok := o.Registry().Building(3, registry.BuildingCompleted)
	require.True(t, ok)
	require.Equal(t, 2, entry.Region.W)
	require.Equal(t, 2, entry.Region.H)
}

// failingUploadDevice fails every subregion upload, so processBuildings
// must return an error and the registry must stay empty — the
// progressive-upload invariant forbids registering a sprite whose pixels
// never reached the GPU.
type failingUploadDevice struct {
	*gpu.Null
}

func (f *failingUploadDevice) UploadSubregion(tex gpu.TextureHandle, layer, x, y, w, h, rowLengthHint int, data []uint16) error {
	return errUploadFailed
}

var errUploadFailed = errors.New("orchestrator_test: forced upload failure")

func TestFailedGPUUploadLeavesRegistryEmpty(t *testing.T) {
	dev := &failingUploadDevice{Null: gpu.NewNull(2)}
	o, _ := testOrchestrator(t, dev)

	n, err := o.processBuildings([]BuildingJob{
		{FileID: 1, JobIndex: 0, SubKind: 3, Stage: registry.BuildingCompleted},
	})
	require.Error(t, err)
	require.Equal(t, 0, n)

	_, ok := o.Registry().Building(3, registry.BuildingCompleted)
	require.False(t, ok)
}

func TestLoadRaceIsCacheHitOnSecondCall(t *testing.T) {
	dev := gpu.NewNull(2)
	o, _ := testOrchestrator(t, dev)

	spec := BakeSpec{
		Race: 1,
		Buildings: []BuildingJob{
			{FileID: 1, JobIndex: 0, SubKind: 3, Stage: registry.BuildingCompleted},
		},
	}
	_, err := o.LoadRace(spec)
	require.NoError(t, err)

	result, err := o.LoadRace(spec)
	require.NoError(t, err)
	require.True(t, result.CacheHit)
	require.Equal(t, cache.SourceMemory, result.Source)
}

func TestSwitchRaceClearsPreviousState(t *testing.T) {
	dev := gpu.NewNull(2)
	o, _ := testOrchestrator(t, dev)

	spec := BakeSpec{
		Race: 1,
		Buildings: []BuildingJob{
			{FileID: 1, JobIndex: 0, SubKind: 3, Stage: registry.BuildingCompleted},
		},
	}
	_, err := o.LoadRace(spec)
	require.NoError(t, err)

	other := BakeSpec{Race: 2}
	_, err = o.SwitchRace(other)
	require.NoError(t, err)

	_, ok := o.Registry().Building(3, registry.BuildingCompleted)
	require.False(t, ok)
}

// TestLoadRaceReportsAtlasFull forces the second of two identical
// reservations to exceed a single-layer atlas, and asserts bake() surfaces
// that as BakeResult.AtlasFull rather than swallowing it inside the
// category processor (spec §7/§8: atlas-full must be reported, not hidden).
func TestLoadRaceReportsAtlasFull(t *testing.T) {
	source := assetio.NewMemorySource()
	// 14x4 sprite: with PaddingPixels=1 and RowBucketPixels=16 it exactly
	// fills a 16x16 layer's only row, so a second reservation has nowhere
	// left to go.
	source.Put(1, buildContainer(make([]byte, 14*4), container.EncodingRAW, 14, 4))

	paletteSource := assetio.NewMemorySource()
	paletteSource.Put(1, []byte{10, 20, 30, 255})

	cfg := config.Default()
	cfg.TrimTop = 0
	cfg.TrimBottom = 0
	cfg.LayerSize = 16

	pool := decode.New(2, nil)
	t.Cleanup(pool.Destroy)

	c := cache.New(t.TempDir(), 1<<30, false, nil)
	o := New(cfg, source, paletteSource, pool, gpu.NewNull(2), c, 1, nil)

	result, err := o.LoadRace(BakeSpec{
		Race: 1,
		Buildings: []BuildingJob{
			{FileID: 1, JobIndex: 0, SubKind: 1, Stage: registry.BuildingCompleted},
			{FileID: 1, JobIndex: 0, SubKind: 2, Stage: registry.BuildingCompleted},
		},
	})
	require.NoError(t, err)
	require.True(t, result.AtlasFull)
	require.Equal(t, 1, result.SpritesBaked)

	_, ok := o.Registry().Building(1, registry.BuildingCompleted)
	require.True(t, ok)
	_, ok = o.Registry().Building(2, registry.BuildingCompleted)
	require.False(t, ok)
}
