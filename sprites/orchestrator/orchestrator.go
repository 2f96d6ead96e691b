// Package orchestrator implements the load orchestrator of spec §4.8: it
// drives a single race's bake across the container reader, palette,
// decoder pool and atlas packer, enforces the upload-before-register
// progressive ordering, and consults the two-tier cache before falling
// back to a cold bake. The single-driver-task control flow is grounded on
// particles_ecs.go's dispatch/collect loop, generalized from a fixed
// per-frame job count to an arbitrary, data-driven bake spec.
package orchestrator

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/atlas"
	"github.com/gekko3d/isogekko/sprites/cache"
	"github.com/gekko3d/isogekko/sprites/config"
	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/gekko3d/isogekko/sprites/decode"
	"github.com/gekko3d/isogekko/sprites/gpu"
	"github.com/gekko3d/isogekko/sprites/logging"
	"github.com/gekko3d/isogekko/sprites/palette"
	"github.com/gekko3d/isogekko/sprites/registry"
)

// ErrGPUUnavailable is returned when a whole-bake failure (texture
// allocation or upload) must be propagated to the caller (spec §7 "the
// entire bake fails and is propagated to the orchestrator caller as
// 'sprites unavailable'").
var ErrGPUUnavailable = errors.New("orchestrator: sprites unavailable")

var errDegenerateSprite = errors.New("orchestrator: degenerate sprite dimensions")

// BuildingJob places one building sub-kind/stage sprite (spec §3
// "buildings (by sub-kind -> construction/completed)").
type BuildingJob struct {
	FileID   int
	JobIndex int
	SubKind  int
	Stage    registry.BuildingStage
}

// MapObjectJob places one map-object sub-kind/variant sprite.
type MapObjectJob struct {
	FileID   int
	JobIndex int
	SubKind  int
	Variant  int
}

// ResourceJob enumerates one material-kind's per-direction sprites; every
// direction present in the job's direction table becomes one registry
// entry (spec §3 "resources (by material-kind x direction)").
type ResourceJob struct {
	FileID       int
	JobIndex     int
	MaterialKind int
}

// UnitJob enumerates one unit-kind's per-direction first-frame sprites
// (spec §3 "units (by unit-kind x direction -> first-frame entry)").
type UnitJob struct {
	FileID   int
	JobIndex int
	UnitKind int
}

// SequenceJob bakes a full per-direction animation (spec §4.7 "Animation
// sequences"). SequenceKey should be registry.DefaultSequenceKey, a
// registry.CarrySequenceKey(...), or a registry.WorkSequenceKey(...).
type SequenceJob struct {
	FileID          int
	JobIndex        int
	EntityKind      int
	SubKind         int
	SequenceKey     string
	FrameDurationMS int
	Loops           bool
}

// BakeSpec is the data-driven description of everything one race's bake
// must load (spec §4.8 step 1: "Compute the set of file-ids needed").
type BakeSpec struct {
	Race       int
	Buildings  []BuildingJob
	MapObjects []MapObjectJob
	Resources  []ResourceJob
	Units      []UnitJob
	Sequences  []SequenceJob
}

// PhaseTimings records per-phase durations for observability (spec §4.8
// step 7).
type PhaseTimings struct {
	FilePreload     time.Duration
	AtlasAllocation time.Duration
	PerCategory     map[string]time.Duration
	GPUUpload       time.Duration
}

// BakeResult summarizes one LoadRace call.
type BakeResult struct {
	Race         int
	CacheHit     bool
	Source       cache.Source
	SpritesBaked int
	AtlasFull    bool
	Timings      PhaseTimings
}

// Orchestrator drives bakes for a sequence of race selections. One
// Orchestrator instance owns the atlas, combined palette and registry for
// whichever race is currently loaded; it is not safe for concurrent
// LoadRace calls (spec §5: "runs on a single driver task").
type Orchestrator struct {
	cfg     config.Config
	source  assetio.Source
	paletteSource assetio.Source
	pool    *decode.Pool
	gpuDev  gpu.Device
	cacheStore *cache.Cache
	logger  logging.Logger

	fileSets *FileSetCache
	nextID   atomic.Uint64

	mu       sync.Mutex
	palette  *palette.Combined
	atlasPkr *atlas.Packer
	reg      *registry.Registry
	maxLayers int
}

// New assembles an orchestrator. maxLayers should already be
// min(cfg.InitialMaxLayers, gpu device's reported limit) (spec §4.8 step
// 4). paletteSource resolves the same file-ids to their per-file palette
// bytes (spec §4.2 "open(file_id) -> palette"), distinct from source's
// sprite container bytes.
func New(cfg config.Config, source, paletteSource assetio.Source, pool *decode.Pool, gpuDev gpu.Device, cacheStore *cache.Cache, maxLayers int, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg = cfg.Normalize()
	return &Orchestrator{
		cfg:           cfg,
		source:        source,
		paletteSource: paletteSource,
		pool:          pool,
		gpuDev:        gpuDev,
		cacheStore:    cacheStore,
		logger:        logger,
		fileSets:      NewFileSetCache(source),
		maxLayers:     maxLayers,
		palette:       palette.NewCombined(),
		atlasPkr:      atlas.New(cfg, maxLayers),
		reg:           registry.New(),
	}
}

// Registry exposes the currently loaded race's sprite registry.
func (o *Orchestrator) Registry() *registry.Registry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reg
}

// Palette exposes the currently loaded race's combined palette.
func (o *Orchestrator) Palette() *palette.Combined {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.palette
}

// Atlas exposes the currently loaded race's atlas packer, for the
// outbound extraction accessor (spec §6 "extract").
func (o *Orchestrator) Atlas() *atlas.Packer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.atlasPkr
}

func (o *Orchestrator) nextRequestID() uint64 { return o.nextID.Add(1) }

// LoadRace implements spec §4.9's restore-or-bake path: consult both
// cache tiers first, and only run a full cold bake on a miss.
func (o *Orchestrator) LoadRace(spec BakeSpec) (*BakeResult, error) {
	if entry, src := o.cacheStore.Get(spec.Race); src != cache.SourceNone {
		if err := o.install(entry); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGPUUnavailable, err)
		}
		return &BakeResult{Race: spec.Race, CacheHit: true, Source: src}, nil
	}
	return o.bake(spec)
}

// SwitchRace tears down the currently loaded race's state per spec §4.8
// "Race switching", then bakes newSpec. In-flight decode futures from the
// previous race are not cancelled; they drain into a pool that no longer
// holds a reference to the old atlas, so their results are simply
// discarded when nothing reads from their channel.
func (o *Orchestrator) SwitchRace(newSpec BakeSpec) (*BakeResult, error) {
	o.mu.Lock()
	o.reg.Clear()
	o.atlasPkr = atlas.New(o.cfg, o.maxLayers)
	o.palette = palette.NewCombined()
	o.mu.Unlock()
	o.fileSets.Clear()
	return o.LoadRace(newSpec)
}

// install reconstructs every in-memory structure from a cached atlas and
// uploads it to the GPU (spec §4.8 "Install").
func (o *Orchestrator) install(entry *cache.CachedAtlas) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.palette = palette.RestoreCombined(entry.CombinedPaletteBytes, entry.PerFilePaletteOffsets, entry.PaletteTotalColors)

	slots := make([][]atlas.Slot, len(entry.PerLayerSlots))
	for i, s := range entry.PerLayerSlots {
		slots[i] = cache.FromSlots(s)
	}
	o.atlasPkr = atlas.Restore(o.cfg, entry.MaxLayers, entry.ImageBytes, slots)
	o.reg = registry.Deserialize(entry.RegistrySnapshot)

	if _, err := o.palette.Upload(o.gpuDev); err != nil {
		return fmt.Errorf("install: palette upload: %w", err)
	}
	if err := o.atlasPkr.Update(o.gpuDev); err != nil {
		return fmt.Errorf("install: atlas upload: %w", err)
	}
	return nil
}

// bake runs a full cold bake for spec (spec §4.8 steps 1-7).
func (o *Orchestrator) bake(spec BakeSpec) (*BakeResult, error) {
	timings := PhaseTimings{PerCategory: make(map[string]time.Duration)}
	result := &BakeResult{Race: spec.Race}

	preloadStart := time.Now()
	fileIDs := collectFileIDs(spec)
	var wg sync.WaitGroup
	for _, id := range fileIDs {
		wg.Add(1)
		go func(fileID int) {
			defer wg.Done()
			if _, err := o.fileSets.Open(fileID); err != nil {
				o.logger.Debugf("orchestrator: missing file-id %d: %v", fileID, err)
			}
		}(id)
	}
	warmErrCh := make(chan error, 1)
	go func() { warmErrCh <- o.pool.WarmUp() }()
	wg.Wait()
	if err := <-warmErrCh; err != nil {
		o.logger.Warnf("orchestrator: decoder pool warm-up failed: %v", err)
	}
	timings.FilePreload = time.Since(preloadStart)
	o.flagSlow("file preload", timings.FilePreload)

	if err := o.registerPalettes(fileIDs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGPUUnavailable, err)
	}
	if _, err := o.palette.Upload(o.gpuDev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGPUUnavailable, err)
	}

	allocStart := time.Now()
	o.mu.Lock()
	o.atlasPkr = atlas.New(o.cfg, o.maxLayers)
	o.mu.Unlock()
	timings.AtlasAllocation = time.Since(allocStart)

	categories := []struct {
		name string
		run  func() (int, error)
	}{
		{"buildings", func() (int, error) { return o.processBuildings(spec.Buildings) }},
		{"map_objects", func() (int, error) { return o.processMapObjects(spec.MapObjects) }},
		{"resources", func() (int, error) { return o.processResources(spec.Resources) }},
		{"units", func() (int, error) { return o.processUnits(spec.Units) }},
		{"sequences", func() (int, error) { return o.processSequences(spec.Sequences) }},
	}
	for _, c := range categories {
		start := time.Now()
		n, err := c.run()
		timings.PerCategory[c.name] = time.Since(start)
		o.flagSlow(c.name, timings.PerCategory[c.name])
		result.SpritesBaked += n
		if err != nil {
			if errors.Is(err, atlas.ErrAtlasFull) {
				o.logger.Warnf("orchestrator: category %s hit atlas-full, continuing with remaining categories", c.name)
				result.AtlasFull = true
				continue
			}
			return nil, fmt.Errorf("%w: category %s: %v", ErrGPUUnavailable, c.name, err)
		}
	}

	o.saveToCache(spec.Race)
	result.Timings = timings
	return result, nil
}

func (o *Orchestrator) flagSlow(phase string, d time.Duration) {
	if d > time.Duration(o.cfg.SlowOpThresholdMS)*time.Millisecond {
		o.logger.Warnf("orchestrator: phase %q took %s (threshold %dms)", phase, d, o.cfg.SlowOpThresholdMS)
	}
}

func collectFileIDs(spec BakeSpec) []int {
	seen := map[int]bool{}
	var ids []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range spec.Buildings {
		add(b.FileID)
	}
	for _, m := range spec.MapObjects {
		add(m.FileID)
	}
	for _, r := range spec.Resources {
		add(r.FileID)
	}
	for _, u := range spec.Units {
		add(u.FileID)
	}
	for _, s := range spec.Sequences {
		add(s.FileID)
	}
	return ids
}

// registerPalettes implements spec §4.8 step 3: for every file-id needed
// by this bake, open its per-file palette and append it to the combined
// palette. A missing or malformed palette file is a missing-asset (spec
// §7): it is logged and skipped, the file gets no entry in the combined
// palette's offset map, and the bake continues.
func (o *Orchestrator) registerPalettes(fileIDs []int) error {
	o.mu.Lock()
	pal := o.palette
	o.mu.Unlock()

	for _, id := range fileIDs {
		data, err := o.paletteSource.Read(id)
		if err != nil {
			o.logger.Debugf("orchestrator: missing palette for file-id %d: %v", id, err)
			continue
		}
		table, err := palette.Open(id, data)
		if err != nil {
			o.logger.Debugf("orchestrator: malformed palette for file-id %d: %v", id, err)
			continue
		}
		if err := pal.Register(id, table.RGBA); err != nil {
			return fmt.Errorf("register palette for file-id %d: %w", id, err)
		}
	}
	return nil
}

// saveToCache persists the current state to both cache tiers; failure is
// logged but never fatal (spec §4.8 step 6).
func (o *Orchestrator) saveToCache(race int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	perLayerSlots := make([][]cache.Slot, o.atlasPkr.LayerCount())
	imageBytes := make([][]uint16, o.atlasPkr.LayerCount())
	for i := 0; i < o.atlasPkr.LayerCount(); i++ {
		perLayerSlots[i] = cache.ToSlots(o.atlasPkr.LayerSlots(i))
		imageBytes[i] = o.atlasPkr.LayerBytes(i)
	}

	entry := &cache.CachedAtlas{
		LayerCount:            o.atlasPkr.LayerCount(),
		MaxLayers:             o.maxLayers,
		PerLayerSlots:         perLayerSlots,
		CombinedPaletteBytes:  o.palette.Bytes(),
		PerFilePaletteOffsets: o.palette.Offsets(),
		PaletteTotalColors:    o.palette.TotalColors(),
		PaletteRows:           o.palette.Rows(),
		RegistrySnapshot:      o.reg.Serialize(),
		ImageBytes:            imageBytes,
	}
	o.cacheStore.Put(race, entry)
}

// pendingItem is one sprite mid-flight within a category batch: its atlas
// region is already reserved and its decode request already submitted;
// only the blit and registry insertion remain.
type pendingItem struct {
	respCh   <-chan decode.Result
	region   atlas.Region
	blitted  bool
	register func()
}

func (o *Orchestrator) prepareItem(header *container.ImageHeader, registerFn func(entry registry.SpriteEntry)) (*pendingItem, error) {
	storedHeight := int(header.Height) - o.cfg.TrimTop - o.cfg.TrimBottom
	if storedHeight <= 0 || header.Width == 0 {
		return nil, errDegenerateSprite
	}

	o.mu.Lock()
	region, err := o.atlasPkr.Reserve(int(header.Width), storedHeight)
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}

	upp := o.cfg.WorldUnitsPerPixel
	entry := registry.SpriteEntry{
		Region:       region,
		AnchorOffset: mgl32.Vec2{-float32(header.AnchorLeft) * upp, (float32(header.AnchorTop) + float32(o.cfg.TrimTop)) * upp},
		WorldWidth:   float32(header.Width) * upp,
		WorldHeight:  float32(storedHeight) * upp,
	}

	respCh := o.pool.Decode(decode.Request{
		ID:                 o.nextRequestID(),
		Bytes:              header.Body,
		Width:              int(header.Width),
		Height:             int(header.Height),
		Encoding:           header.Encoding,
		PaletteGroupOffset: header.PaletteGroupOffset,
		TrimTop:            o.cfg.TrimTop,
		TrimBottom:         o.cfg.TrimBottom,
	})

	return &pendingItem{
		respCh:   respCh,
		region:   region,
		register: func() { registerFn(entry) },
	}, nil
}

// runBatch is the safe progressive batch of spec §4.8 step 5: await every
// decode, blit each into its pre-reserved region, upload the whole atlas
// once, then — and only then — register every surviving item. Finally
// yield to let the caller's event loop draw an intermediate frame.
func (o *Orchestrator) runBatch(items []*pendingItem) (int, error) {
	for _, item := range items {
		res := <-item.respCh
		if res.Err != nil {
			o.logger.Debugf("orchestrator: decode failed: %v", res.Err)
			continue
		}
		o.mu.Lock()
		err := o.atlasPkr.Blit(item.region, res.Indices)
		o.mu.Unlock()
		if err != nil {
			o.logger.Debugf("orchestrator: blit failed: %v", err)
			continue
		}
		item.blitted = true
	}

	o.mu.Lock()
	err := o.atlasPkr.Update(o.gpuDev)
	o.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("atlas upload: %w", err)
	}

	baked := 0
	for _, item := range items {
		if item.blitted {
			item.register()
			baked++
		}
	}
	runtime.Gosched()
	return baked, nil
}

func (o *Orchestrator) firstFrameOfDirection(fs *container.FileSet, dir container.DirectionEntry) (*container.ImageHeader, bool, error) {
	frames, err := fs.Frames(dir.FrameOffset, dir.FrameLength)
	if err != nil {
		return nil, false, err
	}
	if len(frames) == 0 {
		return nil, false, nil
	}
	imgOff, ok := fs.ImageOffset(frames[0].ImageDirIndex)
	if !ok {
		return nil, false, nil
	}
	header, err := fs.ReadImage(imgOff)
	if err != nil {
		return nil, false, err
	}
	return header, true, nil
}

func (o *Orchestrator) directionsOf(fs *container.FileSet, jobIndex int) ([]container.DirectionEntry, error) {
	job, ok := fs.Job(jobIndex)
	if !ok {
		return nil, nil
	}
	return fs.Directions(job.DirOffset, job.DirLength)
}

func (o *Orchestrator) processBuildings(jobs []BuildingJob) (int, error) {
	var items []*pendingItem
	atlasFull := false
	for _, b := range jobs {
		fs, err := o.fileSets.Open(b.FileID)
		if err != nil || fs == nil {
			continue
		}
		dirs, err := o.directionsOf(fs, b.JobIndex)
		if err != nil || len(dirs) == 0 {
			if err != nil {
				o.logger.Debugf("buildings: malformed job %d: %v", b.JobIndex, err)
			}
			continue
		}
		header, ok, err := o.firstFrameOfDirection(fs, dirs[0])
		if err != nil {
			o.logger.Debugf("buildings: malformed frame for job %d: %v", b.JobIndex, err)
			continue
		}
		if !ok {
			continue
		}
		subKind, stage := b.SubKind, b.Stage
		item, err := o.prepareItem(header, func(e registry.SpriteEntry) { o.reg.PutBuilding(subKind, stage, e) })
		if err != nil {
			if errors.Is(err, atlas.ErrAtlasFull) {
				atlasFull = true
				break
			}
			o.logger.Debugf("buildings: skip: %v", err)
			continue
		}
		items = append(items, item)
	}
	baked, err := o.runBatch(items)
	if err != nil {
		return baked, err
	}
	if atlasFull {
		return baked, atlas.ErrAtlasFull
	}
	return baked, nil
}

func (o *Orchestrator) processMapObjects(jobs []MapObjectJob) (int, error) {
	var items []*pendingItem
	atlasFull := false
	for _, m := range jobs {
		fs, err := o.fileSets.Open(m.FileID)
		if err != nil || fs == nil {
			continue
		}
		dirs, err := o.directionsOf(fs, m.JobIndex)
		if err != nil || len(dirs) == 0 {
			continue
		}
		header, ok, err := o.firstFrameOfDirection(fs, dirs[0])
		if err != nil || !ok {
			continue
		}
		subKind, variant := m.SubKind, m.Variant
		item, err := o.prepareItem(header, func(e registry.SpriteEntry) { o.reg.PutMapObject(subKind, variant, e) })
		if err != nil {
			if errors.Is(err, atlas.ErrAtlasFull) {
				atlasFull = true
				break
			}
			continue
		}
		items = append(items, item)
	}
	baked, err := o.runBatch(items)
	if err != nil {
		return baked, err
	}
	if atlasFull {
		return baked, atlas.ErrAtlasFull
	}
	return baked, nil
}

func (o *Orchestrator) processResources(jobs []ResourceJob) (int, error) {
	var items []*pendingItem
	outerAtlasFull := false
	for _, r := range jobs {
		fs, err := o.fileSets.Open(r.FileID)
		if err != nil || fs == nil {
			continue
		}
		dirs, err := o.directionsOf(fs, r.JobIndex)
		if err != nil {
			continue
		}
		materialKind := r.MaterialKind
		atlasFull := false
		for dirIdx, dir := range dirs {
			header, ok, err := o.firstFrameOfDirection(fs, dir)
			if err != nil || !ok {
				continue
			}
			direction := registry.Direction(dirIdx)
			item, err := o.prepareItem(header, func(e registry.SpriteEntry) { o.reg.PutResource(materialKind, direction, e) })
			if err != nil {
				if errors.Is(err, atlas.ErrAtlasFull) {
					atlasFull = true
					break
				}
				continue
			}
			items = append(items, item)
		}
		if atlasFull {
			outerAtlasFull = true
			break
		}
	}
	baked, err := o.runBatch(items)
	if err != nil {
		return baked, err
	}
	if outerAtlasFull {
		return baked, atlas.ErrAtlasFull
	}
	return baked, nil
}

func (o *Orchestrator) processUnits(jobs []UnitJob) (int, error) {
	var items []*pendingItem
	outerAtlasFull := false
	for _, u := range jobs {
		fs, err := o.fileSets.Open(u.FileID)
		if err != nil || fs == nil {
			continue
		}
		dirs, err := o.directionsOf(fs, u.JobIndex)
		if err != nil {
			continue
		}
		unitKind := u.UnitKind
		atlasFull := false
		for dirIdx, dir := range dirs {
			header, ok, err := o.firstFrameOfDirection(fs, dir)
			if err != nil || !ok {
				continue
			}
			direction := registry.Direction(dirIdx)
			item, err := o.prepareItem(header, func(e registry.SpriteEntry) { o.reg.PutUnit(unitKind, direction, e) })
			if err != nil {
				if errors.Is(err, atlas.ErrAtlasFull) {
					atlasFull = true
					break
				}
				continue
			}
			items = append(items, item)
		}
		if atlasFull {
			outerAtlasFull = true
			break
		}
	}
	baked, err := o.runBatch(items)
	if err != nil {
		return baked, err
	}
	if outerAtlasFull {
		return baked, atlas.ErrAtlasFull
	}
	return baked, nil
}

// seqAccumulator collects every frame of one animation job across a
// shared batch, so the registry insertion for the whole sequence happens
// only after every one of its frames has been uploaded.
type seqAccumulator struct {
	spec   SequenceJob
	frames map[registry.Direction][]registry.SpriteEntry
}

func (o *Orchestrator) processSequences(jobs []SequenceJob) (int, error) {
	var items []*pendingItem
	var accumulators []*seqAccumulator
	outerAtlasFull := false

	for _, sq := range jobs {
		fs, err := o.fileSets.Open(sq.FileID)
		if err != nil || fs == nil {
			continue
		}
		dirs, err := o.directionsOf(fs, sq.JobIndex)
		if err != nil || len(dirs) == 0 {
			continue
		}

		acc := &seqAccumulator{spec: sq, frames: make(map[registry.Direction][]registry.SpriteEntry)}
		accumulators = append(accumulators, acc)

		atlasFull := false
		for dirIdx, dir := range dirs {
			frames, err := fs.Frames(dir.FrameOffset, dir.FrameLength)
			if err != nil {
				continue
			}
			direction := registry.Direction(dirIdx)
			for _, frame := range frames {
				imgOff, ok := fs.ImageOffset(frame.ImageDirIndex)
				if !ok {
					continue
				}
				header, err := fs.ReadImage(imgOff)
				if err != nil {
					o.logger.Debugf("sequences: malformed frame: %v", err)
					continue
				}
				capturedAcc, capturedDir := acc, direction
				item, err := o.prepareItem(header, func(e registry.SpriteEntry) {
					capturedAcc.frames[capturedDir] = append(capturedAcc.frames[capturedDir], e)
				})
				if err != nil {
					if errors.Is(err, atlas.ErrAtlasFull) {
						atlasFull = true
						break
					}
					continue
				}
				items = append(items, item)
			}
			if atlasFull {
				break
			}
		}
		if atlasFull {
			outerAtlasFull = true
			break
		}
	}

	baked, err := o.runBatch(items)
	if err != nil {
		return baked, err
	}
	for _, acc := range accumulators {
		if len(acc.frames) == 0 {
			continue
		}
		o.reg.PutSequence(acc.spec.EntityKind, acc.spec.SubKind, acc.spec.SequenceKey, registry.AnimatedEntry{
			FramesPerDirection: acc.frames,
			FrameDurationMS:    acc.spec.FrameDurationMS,
			Loops:              acc.spec.Loops,
		})
	}
	if outerAtlasFull {
		return baked, atlas.ErrAtlasFull
	}
	return baked, nil
}
