package registry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/isogekko/sprites/atlas"
)

// Snapshot is the stable structured form of a Registry (spec §4.7
// "Serialisation"): every map keyed by integer identifiers, suitable for
// gob encoding into the persistent cache. Record order within each slice,
// and the order of Frames within a SequenceRecord, follows Go map
// iteration and is not defined: two serializations of an identical
// registry hold the same records but need not compare byte-for-byte.
type Snapshot struct {
	Buildings  []BuildingRecord
	MapObjects []MapObjectRecord
	Resources  []ResourceRecord
	Units      []UnitRecord
	Sequences  []SequenceRecord
}

type spriteRecord struct {
	Region         atlas.Region
	AnchorOffsetX  float32
	AnchorOffsetY  float32
	WorldWidth     float32
	WorldHeight    float32
}

type BuildingRecord struct {
	SubKind int
	Stage   int
	Sprite  spriteRecord
}

type MapObjectRecord struct {
	SubKind int
	Variant int
	Sprite  spriteRecord
}

type ResourceRecord struct {
	MaterialKind int
	Direction    int
	Sprite       spriteRecord
}

type UnitRecord struct {
	UnitKind  int
	Direction int
	Sprite    spriteRecord
}

type SequenceRecord struct {
	EntityKind int
	SubKind    int
	Key        string
	Frames     []DirectionFrames
	FrameDurationMS int
	Loops           bool
}

type DirectionFrames struct {
	Direction int
	Sprites   []spriteRecord
}

func toRecord(e SpriteEntry) spriteRecord {
	return spriteRecord{
		Region:        e.Region,
		AnchorOffsetX: e.AnchorOffset.X(),
		AnchorOffsetY: e.AnchorOffset.Y(),
		WorldWidth:    e.WorldWidth,
		WorldHeight:   e.WorldHeight,
	}
}

func fromRecord(r spriteRecord) SpriteEntry {
	return SpriteEntry{
		Region:       r.Region,
		AnchorOffset: mgl32.Vec2{r.AnchorOffsetX, r.AnchorOffsetY},
		WorldWidth:   r.WorldWidth,
		WorldHeight:  r.WorldHeight,
	}
}

// Serialize produces a snapshot of the registry's current contents (spec
// §4.7 "serialize() -> value"); record order is not defined (see Snapshot).
func (r *Registry) Serialize() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snap Snapshot
	for k, v := range r.buildings {
		snap.Buildings = append(snap.Buildings, BuildingRecord{SubKind: k.SubKind, Stage: int(k.Stage), Sprite: toRecord(v)})
	}
	for k, v := range r.mapObjects {
		snap.MapObjects = append(snap.MapObjects, MapObjectRecord{SubKind: k.SubKind, Variant: k.Variant, Sprite: toRecord(v)})
	}
	for k, v := range r.resources {
		snap.Resources = append(snap.Resources, ResourceRecord{MaterialKind: k.MaterialKind, Direction: int(k.Direction), Sprite: toRecord(v)})
	}
	for k, v := range r.units {
		snap.Units = append(snap.Units, UnitRecord{UnitKind: k.UnitKind, Direction: int(k.Direction), Sprite: toRecord(v)})
	}
	for k, v := range r.sequences {
		rec := SequenceRecord{EntityKind: k.EntityKind, SubKind: k.SubKind, Key: k.Key, FrameDurationMS: v.FrameDurationMS, Loops: v.Loops}
		for dir, sprites := range v.FramesPerDirection {
			df := DirectionFrames{Direction: int(dir)}
			for _, s := range sprites {
				df.Sprites = append(df.Sprites, toRecord(s))
			}
			rec.Frames = append(rec.Frames, df)
		}
		snap.Sequences = append(snap.Sequences, rec)
	}
	return snap
}

// Deserialize reconstructs a Registry from a Snapshot exactly (spec §4.7
// "deserialize(value) -> registry"). UVs inside the stored regions are
// accepted as-is, since the atlas layer size is fixed for the process
// lifetime.
func Deserialize(snap Snapshot) *Registry {
	r := New()
	for _, b := range snap.Buildings {
		r.buildings[buildingKey{b.SubKind, BuildingStage(b.Stage)}] = fromRecord(b.Sprite)
	}
	for _, m := range snap.MapObjects {
		r.mapObjects[mapObjectKey{m.SubKind, m.Variant}] = fromRecord(m.Sprite)
	}
	for _, res := range snap.Resources {
		r.resources[resourceKey{res.MaterialKind, Direction(res.Direction)}] = fromRecord(res.Sprite)
	}
	for _, u := range snap.Units {
		r.units[unitKey{u.UnitKind, Direction(u.Direction)}] = fromRecord(u.Sprite)
	}
	for _, s := range snap.Sequences {
		ae := AnimatedEntry{FramesPerDirection: make(map[Direction][]SpriteEntry), FrameDurationMS: s.FrameDurationMS, Loops: s.Loops}
		for _, df := range s.Frames {
			sprites := make([]SpriteEntry, 0, len(df.Sprites))
			for _, sr := range df.Sprites {
				sprites = append(sprites, fromRecord(sr))
			}
			ae.FramesPerDirection[Direction(df.Direction)] = sprites
		}
		r.sequences[sequenceKey{s.EntityKind, s.SubKind, s.Key}] = ae
	}
	return r
}
