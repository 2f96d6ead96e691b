package sprites

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/cache"
	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/gekko3d/isogekko/sprites/decode"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/gekko3d/isogekko/sprites/orchestrator"
	"github.com/gekko3d/isogekko/sprites/registry"
)

// buildContainer assembles a minimal one-job/one-direction/one-frame
// container, matching orchestrator_test.go's fixture builder.
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

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	source := assetio.NewMemorySource()
	// A 2x2 sprite whose four indices are transparent, shadow, a real
	// color (index 2) and an out-of-range index (5) to exercise every
	// branch of Extract's sentinel handling.
	source.Put(1, buildContainer([]byte{0, 1, 2, 5}, container.EncodingRAW, 2, 2))

	paletteSource := assetio.NewMemorySource()
	paletteSource.Put(1, []byte{
		0, 0, 0, 0, // index 0: unused, real transparent comes from sentinel
		0, 0, 0, 0, // index 1: unused, real shadow comes from sentinel
		10, 20, 30, 255, // index 2: a real color
	})

	cfg := config.Default()
	cfg.TrimTop = 0
	cfg.TrimBottom = 0
	cfg.LayerSize = 64

	pool := decode.New(2, nil)
	t.Cleanup(pool.Destroy)

	c := cache.New(t.TempDir(), 1<<30, false, nil)
	orch := orchestrator.New(cfg, source, paletteSource, pool, gpu.NewNull(2), c, 2, nil)

	_, err := orch.LoadRace(orchestrator.BakeSpec{
		Race: 1,
		Units: []orchestrator.UnitJob{
			{FileID: 1, JobIndex: 0, UnitKind: 7},
		},
	})
	require.NoError(t, err)

	return NewPipeline(orch)
}

func TestSpriteForUnitDispatch(t *testing.T) {
	p := testPipeline(t)

	entry, ok := p.SpriteFor(EntityUnit, 7, int(registry.Direction(0)), 0)
	require.True(t, ok)
	require.Equal(t, 2, entry.Region.W)

	_, ok = p.SpriteFor(EntityUnit, 99, 0, 0)
	require.False(t, ok)

	_, ok = p.SpriteFor(EntityBuilding, 7, 0, 0)
	require.False(t, ok)
}

func TestExtractAppliesSentinelColors(t *testing.T) {
	p := testPipeline(t)

	entry, ok := p.SpriteFor(EntityUnit, 7, 0, 0)
	require.True(t, ok)

	img, ok := p.Extract(entry.Region, nil)
	require.True(t, ok)
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())

	require.Equal(t, color.RGBA{0, 0, 0, 0}, img.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{0, 0, 0, 64}, img.RGBAAt(1, 0))
	require.Equal(t, color.RGBA{10, 20, 30, 255}, img.RGBAAt(0, 1))
	require.Equal(t, color.RGBA{255, 0, 255, 255}, img.RGBAAt(1, 1))
}

func TestAsAnimationProviderReportsNoAnimationForFirstFrameOnlyUnit(t *testing.T) {
	p := testPipeline(t)
	view := p.AsAnimationProvider()
	require.False(t, view.HasAnimation(EntityUnit, 7))
}
