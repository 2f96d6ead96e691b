package registry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/isogekko/sprites/atlas"
)

func sampleEntry(x int) SpriteEntry {
	return SpriteEntry{
		Region:       atlas.Region{LayerIndex: 0, X: x, Y: 1, W: 8, H: 8, U0: 0.1, V0: 0.2, U1: 0.3, V1: 0.4},
		AnchorOffset: mgl32.Vec2{1.5, 2.5},
		WorldWidth:   1.0,
		WorldHeight:  1.0,
	}
}

func buildSample() *Registry {
	r := New()
	r.PutBuilding(3, BuildingCompleted, sampleEntry(1))
	r.PutBuilding(3, BuildingConstruction, sampleEntry(2))
	r.PutMapObject(4, 0, sampleEntry(3))
	r.PutResource(5, Direction(2), sampleEntry(4))
	r.PutUnit(6, Direction(0), sampleEntry(5))
	r.PutSequence(1, 6, DefaultSequenceKey, AnimatedEntry{
		FramesPerDirection: map[Direction][]SpriteEntry{
			Direction(0): {sampleEntry(6), sampleEntry(7)},
		},
		FrameDurationMS: 120,
		Loops:           true,
	})
	r.PutSequence(1, 6, CarrySequenceKey(5), AnimatedEntry{
		FramesPerDirection: map[Direction][]SpriteEntry{Direction(0): {sampleEntry(8)}},
		FrameDurationMS:    150,
	})
	return r
}

func TestLookupsAfterPut(t *testing.T) {
	r := buildSample()

	e, ok := r.Building(3, BuildingCompleted)
	require.True(t, ok)
	require.Equal(t, 1, e.Region.X)

	_, ok = r.Building(3, BuildingStage(99))
	require.False(t, ok)

	require.True(t, r.HasAnimation(1, 6))
	require.False(t, r.HasAnimation(1, 7))

	seq, ok := r.Sequence(1, 6, CarrySequenceKey(5))
	require.True(t, ok)
	require.Equal(t, 150, seq.FrameDurationMS)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	r := buildSample()

	snap1 := r.Serialize()
	r2 := Deserialize(snap1)
	snap2 := r2.Serialize()

	require.ElementsMatch(t, snap1.Buildings, snap2.Buildings)
	require.ElementsMatch(t, snap1.MapObjects, snap2.MapObjects)
	require.ElementsMatch(t, snap1.Resources, snap2.Resources)
	require.ElementsMatch(t, snap1.Units, snap2.Units)
	require.ElementsMatch(t, snap1.Sequences, snap2.Sequences)

	// r2 must answer every lookup identically to r.
	e1, ok1 := r.Building(3, BuildingCompleted)
	e2, ok2 := r2.Building(3, BuildingCompleted)
	require.Equal(t, ok1, ok2)
	require.Equal(t, e1, e2)

	seq1, ok1 := r.Sequence(1, 6, DefaultSequenceKey)
	seq2, ok2 := r2.Sequence(1, 6, DefaultSequenceKey)
	require.Equal(t, ok1, ok2)
	require.Equal(t, seq1, seq2)
}

func TestClearEmptiesEveryMap(t *testing.T) {
	r := buildSample()
	r.Clear()

	_, ok := r.Building(3, BuildingCompleted)
	require.False(t, ok)
	require.False(t, r.HasAnimation(1, 6))
}
