// Package cache implements the two-tier persistent cache of spec §4.9: an
// in-process memory tier keyed by race plus a durable on-disk tier, both
// gated by a version tag that concatenates a build identity with a
// hand-bumped schema number. The durable tier uses encoding/gob over
// plain files, the same no-3rd-party-KV-store approach mod_assets.go
// takes for everything below the asset-id layer: no example repo in the
// corpus reaches for an embedded database, so this stays on the standard
// library (see DESIGN.md).
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gekko3d/isogekko/sprites/atlas"
	"github.com/gekko3d/isogekko/sprites/logging"
	"github.com/gekko3d/isogekko/sprites/registry"
)

// SchemaVersion is hand-bumped whenever CachedAtlas's shape changes
// incompatibly. It is a var, not a const, so schema bumps can be reasoned
// about in tests without a process restart.
var SchemaVersion = 7

// Slot mirrors atlas.Slot's persisted fields (spec §6 "slots: per-layer
// arrays of {x, y, width, height}"). Kept distinct from atlas.Slot so the
// on-disk shape doesn't silently drift with in-memory refactors.
type Slot struct {
	X, Y, Width, Height int
}

// CachedAtlas is the persisted record for one race's baked atlas (spec §3
// "Cached atlas" / §6 "Persistent store layout").
type CachedAtlas struct {
	VersionTag         string
	Race               int
	LayerCount         int
	MaxLayers          int
	PerLayerSlots      [][]Slot
	CombinedPaletteBytes []byte
	PerFilePaletteOffsets map[int]int
	PaletteTotalColors int
	PaletteRows        int
	RegistrySnapshot   registry.Snapshot
	ImageBytes         [][]uint16
	TimestampUnixMillis int64
}

// Source names where a restored entry came from, for telemetry.
type Source int

const (
	SourceNone Source = iota
	SourceMemory
	SourceDurable
)

func (s Source) String() string {
	switch s {
	case SourceMemory:
		return "memory"
	case SourceDurable:
		return "durable"
	default:
		return "none"
	}
}

var (
	// ErrTooLarge is returned internally when a durable write is skipped
	// for exceeding the size ceiling; never surfaced to the caller (the
	// bake has already succeeded regardless, spec §7).
	ErrTooLarge = errors.New("cache: image bytes exceed durable size ceiling")
)

// BuildIdentity returns a stable identity for this process's code build.
// The teacher pack has no build-stamping mechanism to ground this on, so
// it falls back to a random identity generated once per process and
// reused for the process lifetime — any restart invalidates durable
// entries, which is conservative but correct (a stale bake is always a
// safe miss, never a wrong hit).
var buildIdentity = uuid.NewString()

func BuildIdentity() string { return buildIdentity }

// VersionTag concatenates the build identity with the schema number (spec
// §3 "version_tag concatenates a build identity with a schema number").
func VersionTag() string {
	return buildIdentity + "-v" + strconv.Itoa(SchemaVersion)
}

// Stats is the telemetry accessor supplementing spec §4.9 with per-tier
// hit/miss counters (SPEC_FULL.md §4.12).
type Stats struct {
	MemoryHits  int
	DurableHits int
	Misses      int
	WriteFailures int
}

// Cache is the two-tier store. Tier 1 is an in-memory map, process
// lifetime, keyed by race (spec §4.9). Tier 2 is a durable store rooted
// at a directory, one file per race.
type Cache struct {
	logger  logging.Logger
	sizeCeiling int64
	disabled bool
	dir     string

	mu     sync.Mutex
	tier1  map[int]*CachedAtlas
	stats  Stats
}

// New creates a cache rooted at dir for its durable tier. disabled mirrors
// spec §6's cache_disabled config option: when true, Get always misses and
// Put is a no-op.
func New(dir string, sizeCeilingBytes int64, disabled bool, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Cache{
		logger:      logger,
		sizeCeiling: sizeCeilingBytes,
		disabled:    disabled,
		dir:         dir,
		tier1:       make(map[int]*CachedAtlas),
	}
}

func (c *Cache) durablePath(race int) string {
	return filepath.Join(c.dir, fmt.Sprintf("race-%d.atlas", race))
}

// Get implements spec §4.9's restore algorithm: try tier 1, then tier 2,
// gating both on an exact version-tag match.
func (c *Cache) Get(race int) (*CachedAtlas, Source) {
	if c.disabled {
		return nil, SourceNone
	}
	current := VersionTag()

	c.mu.Lock()
	entry, ok := c.tier1[race]
	c.mu.Unlock()
	if ok && entry.VersionTag == current {
		c.recordHit(SourceMemory)
		return entry, SourceMemory
	}

	entry, err := c.readDurable(race)
	if err != nil {
		c.logger.Debugf("cache: durable read miss for race %d: %v", race, err)
		c.recordMiss()
		return nil, SourceNone
	}
	if entry.VersionTag != current {
		c.recordMiss()
		return nil, SourceNone
	}

	c.mu.Lock()
	c.tier1[race] = entry
	c.mu.Unlock()
	c.recordHit(SourceDurable)
	return entry, SourceDurable
}

func (c *Cache) recordHit(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if src == SourceMemory {
		c.stats.MemoryHits++
	} else {
		c.stats.DurableHits++
	}
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Misses++
}

// Put saves entry to both tiers (spec §4.9). The durable write always
// stamps the current version tag; it is skipped outright above the size
// ceiling, and retried once with other races cleared on a quota-style
// failure (spec §4.9 "Memory-pressure retry"). Durable failures are
// logged, never returned: tier 1 always succeeds so the bake is never
// blocked on disk state.
func (c *Cache) Put(race int, entry *CachedAtlas) {
	if c.disabled {
		return
	}

	entry.VersionTag = VersionTag()
	entry.Race = race
	entry.TimestampUnixMillis = time.Now().UnixMilli()

	c.mu.Lock()
	c.tier1[race] = entry
	c.mu.Unlock()

	imageBytes := int64(0)
	for _, layer := range entry.ImageBytes {
		imageBytes += int64(len(layer)) * 2
	}
	if imageBytes > c.sizeCeiling {
		c.logger.Warnf("cache: skipping durable write for race %d (%d bytes exceeds ceiling %d)", race, imageBytes, c.sizeCeiling)
		return
	}

	if err := c.writeDurable(race, entry); err != nil {
		c.logger.Warnf("cache: durable write failed for race %d, retrying after clearing other races: %v", race, err)
		c.clearOtherRaces(race)
		if err := c.writeDurable(race, entry); err != nil {
			c.mu.Lock()
			c.stats.WriteFailures++
			c.mu.Unlock()
			c.logger.Errorf("cache: durable write abandoned for race %d: %v", race, err)
		}
	}
}

func (c *Cache) clearOtherRaces(keep int) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == filepath.Base(c.durablePath(keep)) {
			continue
		}
		_ = os.Remove(filepath.Join(c.dir, e.Name()))
	}
}

func (c *Cache) writeDurable(race int, entry *CachedAtlas) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}
	tmp := c.durablePath(race) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.durablePath(race))
}

func (c *Cache) readDurable(race int) (*CachedAtlas, error) {
	data, err := os.ReadFile(c.durablePath(race))
	if err != nil {
		return nil, err
	}
	var entry CachedAtlas
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Clear empties tier 1 (used by race switching, spec §4.8).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier1 = make(map[int]*CachedAtlas)
}

// Stats reports cumulative hit/miss telemetry (SPEC_FULL.md §4.12).
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ToSlots converts atlas.Slot values to their persisted form. X carries
// the row's current fill frontier (atlas.Slot.CurrentX), not a fixed
// origin — every row physically starts at 0, but restoring with X=0
// would forget how much of the row is already occupied and let a future
// reservation overwrite already-blitted sprites.
func ToSlots(slots []atlas.Slot) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = Slot{X: s.CurrentX, Y: s.Y, Width: s.LayerWidth, Height: s.Height}
	}
	return out
}

// FromSlots reconstructs atlas.Slot values from their persisted form.
func FromSlots(slots []Slot) []atlas.Slot {
	out := make([]atlas.Slot, len(slots))
	for i, s := range slots {
		out[i] = atlas.Slot{Y: s.Y, Height: s.Height, CurrentX: s.X, LayerWidth: s.Width}
	}
	return out
}
