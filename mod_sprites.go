package gekko

import (
	"reflect"

	"github.com/gekko3d/isogekko/sprites"
	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/cache"
	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/decode"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/gekko3d/isogekko/sprites/logging"
	"github.com/gekko3d/isogekko/sprites/orchestrator"
)

// SpritesModule wires the sprite asset pipeline into the engine as an
// installed resource, the same shape AssetServerModule uses for meshes
// and materials: Install is idempotent and the constructed pipeline is
// registered under its pointer type so systems can depend on
// *sprites.Pipeline the way they depend on *AssetServer.
type SpritesModule struct {
	// ContainerDir holds one "<file-id>.spr" sprite container per asset;
	// PaletteDir holds one "<file-id>.spr" per-file palette (spec §4.2's
	// separate open(file_id) -> palette accessor). Both roots resolve a
	// file id to the same "<file-id>.spr" name, so they must be distinct
	// directories; the container format never names its own palette file.
	ContainerDir string
	PaletteDir   string
	CacheDir     string

	// Device is the GPU collaborator the atlas and combined palette
	// stream to. A nil Device installs gpu.NewNull, so the module works
	// headless (tests, dedicated servers) without a caller having to
	// special-case it.
	Device gpu.Device

	Config config.Config
}

// Install constructs the pipeline's orchestrator and registers it as a
// *sprites.Pipeline resource. Re-installing with an existing pipeline
// already present is a no-op, mirroring PlatformWindowModule's
// single-resource guard.
func (m SpritesModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*sprites.Pipeline)(nil)).Elem()
	if _, ok := app.resources[t]; ok {
		return
	}

	dev := m.Device
	if dev == nil {
		dev = gpu.NewNull(64)
	}

	cfg := m.Config.Normalize()
	containerSource := assetio.NewDiskSource(m.ContainerDir)
	paletteSource := assetio.NewDiskSource(m.PaletteDir)
	pool := decode.New(cfg.DecoderParallelism, adaptLogger(app.Logger()))
	cacheStore := cache.New(m.CacheDir, cfg.DurableCacheSizeCeilingBytes, cfg.CacheDisabled, adaptLogger(app.Logger()))

	maxLayers := cfg.InitialMaxLayers
	if gpuMax := dev.MaxArrayTextureLayers(); gpuMax > 0 && gpuMax < maxLayers {
		maxLayers = gpuMax
	}

	orch := orchestrator.New(cfg, containerSource, paletteSource, pool, dev, cacheStore, maxLayers, adaptLogger(app.Logger()))
	app.addResources(sprites.NewPipeline(orch))
}

// adaptLogger narrows the engine's Logger to the pipeline's logging.Logger
// contract. The engine's Logger carries every method of logging.Logger
// (plus SetDebug; see sprites/logging/logging.go), so this is a plain
// interface conversion, never a wrapping struct.
func adaptLogger(l Logger) logging.Logger {
	if l == nil {
		return logging.Nop()
	}
	return l
}
