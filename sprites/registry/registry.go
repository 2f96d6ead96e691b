// Package registry implements the sprite registry of spec §4.7: five maps
// from logical identifier to sprite entry or animation sequence, plus a
// stable serialize/deserialize round trip for the persistent cache. The
// map-of-structs-with-a-stable-snapshot shape is grounded on
// mod_assets.go's AssetServer, which owns equivalent lookup maps keyed by
// logical identifier.
package registry

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/isogekko/sprites/atlas"
)

// Direction is a facing index into a unit/resource/building's sprite set.
// The container format doesn't fix a direction count; callers agree on one
// out of band (typically 8 for isometric facings).
type Direction int

// SpriteEntry is one resolved sprite: its atlas region plus the world-space
// placement data the renderer needs (spec §3 "Sprite entry"). Offsets are
// in world-space units and already fold in the top-edge trim.
type SpriteEntry struct {
	Region       atlas.Region
	AnchorOffset mgl32.Vec2
	WorldWidth   float32
	WorldHeight  float32
}

// AnimatedEntry is a per-direction frame sequence (spec §3 "Animation
// sequences").
type AnimatedEntry struct {
	FramesPerDirection map[Direction][]SpriteEntry
	FrameDurationMS    int
	Loops              bool
}

type buildingKey struct {
	SubKind int
	Stage   BuildingStage
}

// BuildingStage distinguishes a building's construction sprite from its
// completed one (spec §3 "buildings (by sub-kind -> construction/completed)").
type BuildingStage int

const (
	BuildingConstruction BuildingStage = iota
	BuildingCompleted
)

type mapObjectKey struct {
	SubKind int
	Variant int
}

type resourceKey struct {
	MaterialKind int
	Direction    Direction
}

type unitKey struct {
	UnitKind  int
	Direction Direction
}

type sequenceKey struct {
	EntityKind int
	SubKind    int
	Key        string
}

// DefaultSequenceKey is the walk-cycle sequence-key used when no carry or
// work variant applies (spec §4.7 "Animation sequences").
const DefaultSequenceKey = "walk"

// CarrySequenceKey builds the sequence-key for a carrier's carry animation.
func CarrySequenceKey(materialKind int) string {
	return fmt.Sprintf("carry:%d", materialKind)
}

// WorkSequenceKey builds the sequence-key for a worker's work animation.
func WorkSequenceKey(workIndex int) string {
	return fmt.Sprintf("work:%d", workIndex)
}

// Registry holds every sprite lookup table for one loaded race (spec §4.7).
// It is written only by the orchestrator and read concurrently afterward;
// a single mutex protects the maps since writes only happen during a bake.
type Registry struct {
	mu sync.RWMutex

	buildings   map[buildingKey]SpriteEntry
	mapObjects  map[mapObjectKey]SpriteEntry
	resources   map[resourceKey]SpriteEntry
	units       map[unitKey]SpriteEntry
	sequences   map[sequenceKey]AnimatedEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		buildings:  make(map[buildingKey]SpriteEntry),
		mapObjects: make(map[mapObjectKey]SpriteEntry),
		resources:  make(map[resourceKey]SpriteEntry),
		units:      make(map[unitKey]SpriteEntry),
		sequences:  make(map[sequenceKey]AnimatedEntry),
	}
}

// PutBuilding registers a building sprite for (subKind, stage).
func (r *Registry) PutBuilding(subKind int, stage BuildingStage, e SpriteEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buildings[buildingKey{subKind, stage}] = e
}

// Building looks up a building sprite by (subKind, stage).
func (r *Registry) Building(subKind int, stage BuildingStage) (SpriteEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.buildings[buildingKey{subKind, stage}]
	return e, ok
}

// PutMapObject registers a map-object sprite for (subKind, variant).
func (r *Registry) PutMapObject(subKind, variant int, e SpriteEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapObjects[mapObjectKey{subKind, variant}] = e
}

// MapObject looks up a map-object sprite by (subKind, variant).
func (r *Registry) MapObject(subKind, variant int) (SpriteEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.mapObjects[mapObjectKey{subKind, variant}]
	return e, ok
}

// PutResource registers a resource sprite for (materialKind, direction).
func (r *Registry) PutResource(materialKind int, dir Direction, e SpriteEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[resourceKey{materialKind, dir}] = e
}

// Resource looks up a resource sprite by (materialKind, direction).
func (r *Registry) Resource(materialKind int, dir Direction) (SpriteEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.resources[resourceKey{materialKind, dir}]
	return e, ok
}

// PutUnit registers a unit's first-frame sprite for (unitKind, direction).
func (r *Registry) PutUnit(unitKind int, dir Direction, e SpriteEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unitKey{unitKind, dir}] = e
}

// Unit looks up a unit's first-frame sprite by (unitKind, direction).
func (r *Registry) Unit(unitKind int, dir Direction) (SpriteEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.units[unitKey{unitKind, dir}]
	return e, ok
}

// PutSequence registers a per-direction frame sequence for (entityKind,
// subKind, sequenceKey).
func (r *Registry) PutSequence(entityKind, subKind int, key string, e AnimatedEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences[sequenceKey{entityKind, subKind, key}] = e
}

// Sequence looks up an animation sequence by (entityKind, subKind, sequenceKey).
func (r *Registry) Sequence(entityKind, subKind int, key string) (AnimatedEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sequences[sequenceKey{entityKind, subKind, key}]
	return e, ok
}

// HasAnimation reports whether any sequence is registered for (entityKind,
// subKind), regardless of sequence-key (spec §6 "as_animation_provider").
func (r *Registry) HasAnimation(entityKind, subKind int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.sequences {
		if k.EntityKind == entityKind && k.SubKind == subKind {
			return true
		}
	}
	return false
}

// Clear empties every map (spec §4.8 "Race switching": "clears the sprite
// registry").
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buildings = make(map[buildingKey]SpriteEntry)
	r.mapObjects = make(map[mapObjectKey]SpriteEntry)
	r.resources = make(map[resourceKey]SpriteEntry)
	r.units = make(map[unitKey]SpriteEntry)
	r.sequences = make(map[sequenceKey]AnimatedEntry)
}
