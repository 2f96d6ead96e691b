// Command spritebake is a smoke-test CLI for the sprite asset pipeline:
// it opens a real GPU device the way the engine's renderer would
// (gpu_operations.go's glfw+wgpu setup), bakes one race's worth of
// sprites against it, and reports the result. Grounded on
// voxelrt/rt_main.go's flag-parse-then-glfw-window shape.
package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/isogekko/sprites"
	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/cache"
	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/decode"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/gekko3d/isogekko/sprites/orchestrator"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	containerDir := flag.String("containers", "./assets/sprites", "directory of <file-id>.spr sprite containers")
	paletteDir := flag.String("palettes", "./assets/palettes", "directory of <file-id>.spr per-file palettes")
	cacheDir := flag.String("cache", "./cache/sprites", "durable atlas cache directory")
	race := flag.Int("race", 1, "race identifier to bake")
	buildingFile := flag.Int("building-file", 1, "file-id of a single building container, for a smoke-test bake")
	buildingSubKind := flag.Int("building-subkind", 0, "sub-kind to assign the smoke-test building")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(64, 64, "spritebake", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "spritebake device"})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	dev := gpu.NewWGPUDevice(device, queue, 0)

	cfg := config.Default()
	containerSource := assetio.NewDiskSource(*containerDir)
	paletteSource := assetio.NewDiskSource(*paletteDir)
	pool := decode.New(cfg.DecoderParallelism, nil)
	defer pool.Destroy()
	cacheStore := cache.New(*cacheDir, cfg.DurableCacheSizeCeilingBytes, false, nil)

	maxLayers := cfg.InitialMaxLayers
	if gpuMax := dev.MaxArrayTextureLayers(); gpuMax > 0 && gpuMax < maxLayers {
		maxLayers = gpuMax
	}

	orch := orchestrator.New(cfg, containerSource, paletteSource, pool, dev, cacheStore, maxLayers, nil)
	pipeline := sprites.NewPipeline(orch)

	result, err := pipeline.LoadRace(orchestrator.BakeSpec{
		Race: *race,
		Buildings: []orchestrator.BuildingJob{
			{FileID: *buildingFile, JobIndex: 0, SubKind: *buildingSubKind},
		},
	})
	if err != nil {
		fmt.Println("bake failed:", err)
		return
	}
	fmt.Printf("baked race %d: %d sprites, cache=%s, atlas_full=%v\n",
		result.Race, result.SpritesBaked, result.Source, result.AtlasFull)
}
