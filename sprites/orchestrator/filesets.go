package orchestrator

import (
	"sync"

	"github.com/gekko3d/isogekko/sprites/assetio"
	"github.com/gekko3d/isogekko/sprites/container"
)

// fileSetFuture is a shared, single-computation future for one file-id's
// parsed container. The first caller to observe a miss does the I/O and
// parse outside any lock; every other concurrent caller for the same
// file-id blocks on done instead of repeating the work (spec §5
// "Concurrent opens of the same file-id are de-duplicated by keeping a
// shared future, not by locking twice").
type fileSetFuture struct {
	done chan struct{}
	fs   *container.FileSet
	err  error
}

// FileSetCache is the process-wide container file-set interning map (spec
// §5 "Container file-set cache is process-wide").
type FileSetCache struct {
	source assetio.Source

	mu      sync.Mutex
	entries map[int]*fileSetFuture
}

func NewFileSetCache(source assetio.Source) *FileSetCache {
	return &FileSetCache{source: source, entries: make(map[int]*fileSetFuture)}
}

// Open returns the parsed FileSet for fileID, parsing it at most once
// regardless of concurrent callers.
func (c *FileSetCache) Open(fileID int) (*container.FileSet, error) {
	c.mu.Lock()
	f, ok := c.entries[fileID]
	if ok {
		c.mu.Unlock()
		<-f.done
		return f.fs, f.err
	}
	f = &fileSetFuture{done: make(chan struct{})}
	c.entries[fileID] = f
	c.mu.Unlock()

	data, err := c.source.Read(fileID)
	if err == nil {
		f.fs, f.err = container.Parse(data)
	} else {
		f.err = err
	}
	close(f.done)
	return f.fs, f.err
}

// Clear empties the interning map (spec §4.8 "Race switching": "clears
// the container-file interning map").
func (c *FileSetCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*fileSetFuture)
}
