// Package sprites is the renderer-facing entry point of the sprite asset
// pipeline (spec §6 "Outbound to the renderer"). It composes the
// orchestrator, registry, atlas and combined palette into the four
// accessors a renderer or UI layer actually calls; none of the
// sub-packages are meant to be driven directly by host code.
package sprites

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gekko3d/isogekko/sprites/atlas"
	"github.com/gekko3d/isogekko/sprites/orchestrator"
	"github.com/gekko3d/isogekko/sprites/palette"
	"github.com/gekko3d/isogekko/sprites/registry"
)

// EntityKind distinguishes which of the registry's five lookup tables a
// sprite_for/sequence_for call addresses (spec §3: buildings, map
// objects, resources, units all keep distinct keying schemes).
type EntityKind int

const (
	EntityBuilding EntityKind = iota
	EntityMapObject
	EntityResource
	EntityUnit
)

// Frontend is the outbound contract consumed by the renderer and the UI
// layer (spec §6).
type Frontend interface {
	SpriteFor(kind EntityKind, subKind, direction, frame int) (registry.SpriteEntry, bool)
	SequenceFor(kind EntityKind, subKind int, sequenceKey string) (registry.AnimatedEntry, bool)
	Extract(region atlas.Region, optionalPaletteBytes []byte) (*image.RGBA, bool)
	AsAnimationProvider() AnimationProvider
}

// AnimationProvider is the narrower view handed to callers that only
// need to know whether, and how, an entity animates (spec §6
// "as_animation_provider").
type AnimationProvider interface {
	HasAnimation(entityKind EntityKind, subKind int) bool
	AnimationData(entityKind EntityKind, subKind int) (registry.AnimatedEntry, bool)
}

// Pipeline is the concrete Frontend, backed by one orchestrator (spec
// §4.8) driving whichever race is currently loaded.
type Pipeline struct {
	orch *orchestrator.Orchestrator
}

// NewPipeline wraps an already-constructed orchestrator.
func NewPipeline(orch *orchestrator.Orchestrator) *Pipeline {
	return &Pipeline{orch: orch}
}

// LoadRace and SwitchRace pass through to the orchestrator (spec §4.8);
// exposed here so host code only needs to hold the Pipeline.
func (p *Pipeline) LoadRace(spec orchestrator.BakeSpec) (*orchestrator.BakeResult, error) {
	return p.orch.LoadRace(spec)
}

func (p *Pipeline) SwitchRace(spec orchestrator.BakeSpec) (*orchestrator.BakeResult, error) {
	return p.orch.SwitchRace(spec)
}

// SpriteFor resolves one sprite (spec §6 "sprite_for(entity-kind,
// sub-kind, direction, frame)"). The (direction, frame) pair is
// reinterpreted per kind, since each registry table keys itself
// differently: buildings read direction as a BuildingStage, map objects
// read it as a variant, resources and units read it as a facing
// direction with frame selecting into that unit's default sequence when
// non-zero.
func (p *Pipeline) SpriteFor(kind EntityKind, subKind, direction, frame int) (registry.SpriteEntry, bool) {
	reg := p.orch.Registry()
	switch kind {
	case EntityBuilding:
		return reg.Building(subKind, registry.BuildingStage(direction))
	case EntityMapObject:
		return reg.MapObject(subKind, direction)
	case EntityResource:
		return reg.Resource(subKind, registry.Direction(direction))
	case EntityUnit:
		if frame <= 0 {
			return reg.Unit(subKind, registry.Direction(direction))
		}
		seq, ok := reg.Sequence(int(EntityUnit), subKind, registry.DefaultSequenceKey)
		if !ok {
			return registry.SpriteEntry{}, false
		}
		frames, ok := seq.FramesPerDirection[registry.Direction(direction)]
		if !ok || frame >= len(frames) {
			return registry.SpriteEntry{}, false
		}
		return frames[frame], true
	default:
		return registry.SpriteEntry{}, false
	}
}

// SequenceFor resolves an animation sequence (spec §6 "sequence_for").
func (p *Pipeline) SequenceFor(kind EntityKind, subKind int, sequenceKey string) (registry.AnimatedEntry, bool) {
	return p.orch.Registry().Sequence(int(kind), subKind, sequenceKey)
}

// Extract recolours an atlas region's palette indices into a 32-bit RGBA
// image for UI thumbnails (spec §6 "extract"). When optionalPaletteBytes
// is nil the currently loaded race's combined palette is used. Index 0
// is always transparent, index 1 a ~25% black shadow, and any index past
// the palette's end renders magenta so a bad decode is visually obvious
// rather than silently wrong.
func (p *Pipeline) Extract(region atlas.Region, optionalPaletteBytes []byte) (*image.RGBA, bool) {
	indices, err := p.orch.Atlas().ExtractIndices(region)
	if err != nil {
		return nil, false
	}

	paletteBytes := optionalPaletteBytes
	if paletteBytes == nil {
		paletteBytes = p.orch.Palette().Bytes()
	}
	table, err := palette.Open(-1, paletteBytes)
	if err != nil {
		return nil, false
	}

	pal := buildExtractPalette(table)
	src := &image.Paletted{
		Pix:     make([]uint8, region.W*region.H),
		Stride:  region.W,
		Rect:    image.Rect(0, 0, region.W, region.H),
		Palette: pal,
	}
	for i, idx := range indices {
		if int(idx) >= len(pal) {
			idx = uint16(len(pal) - 1) // magenta sentinel row, appended last
		}
		src.Pix[i] = uint8(idx)
	}

	dst := image.NewRGBA(image.Rect(0, 0, region.W, region.H))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, true
}

// buildExtractPalette builds a color.Palette whose sentinel entries match
// spec §6's extract special cases, with a trailing magenta entry that
// every out-of-range decoded index is clamped to.
func buildExtractPalette(table *palette.Table) color.Palette {
	n := table.NumColors()
	pal := make(color.Palette, 0, n+1)
	for i := 0; i < n; i++ {
		switch i {
		case palette.IndexTransparent:
			pal = append(pal, color.RGBA{0, 0, 0, 0})
		case palette.IndexShadow:
			pal = append(pal, color.RGBA{0, 0, 0, 64})
		default:
			r, g, b, a, _ := table.Color(i)
			pal = append(pal, color.RGBA{r, g, b, a})
		}
	}
	if n == 0 {
		pal = append(pal, color.RGBA{0, 0, 0, 0})
	}
	pal = append(pal, color.RGBA{255, 0, 255, 255}) // out-of-range sentinel
	return pal
}

// AsAnimationProvider returns the narrower animation-only view (spec §6).
func (p *Pipeline) AsAnimationProvider() AnimationProvider { return animationView{p} }

type animationView struct{ p *Pipeline }

func (v animationView) HasAnimation(entityKind EntityKind, subKind int) bool {
	return v.p.orch.Registry().HasAnimation(int(entityKind), subKind)
}

// AnimationData returns the default (walk-cycle) sequence for an entity,
// the animation a renderer falls back to absent a more specific
// carry/work sequence-key (spec §4.7 "Animation sequences").
func (v animationView) AnimationData(entityKind EntityKind, subKind int) (registry.AnimatedEntry, bool) {
	return v.p.orch.Registry().Sequence(int(entityKind), subKind, registry.DefaultSequenceKey)
}

var _ Frontend = (*Pipeline)(nil)
