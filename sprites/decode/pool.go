// Package decode implements the parallel decoder pool of spec §4.5: a
// bounded set of worker goroutines, round-robin dispatch, and
// ownership-transfer (no shared mutable state) between the pool and its
// caller. The worker-pool shape is grounded on particles_ecs.go's
// GOMAXPROCS-capped-at-8 channel worker pool.
package decode

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gekko3d/isogekko/sprites/container"
	"github.com/gekko3d/isogekko/sprites/logging"
	"github.com/gekko3d/isogekko/sprites/rle"
)

// MaxWorkers is the hard cap on pool size (spec §4.5: min(available
// parallelism, 8)).
const MaxWorkers = 8

// minSliceBytes is the floor on how many bytes the caller should transfer
// to a worker per request (spec §4.5 "Transfer discipline").
const minSliceBytes = 8 * 1024

// ErrPoolDestroyed is returned (via the result channel) for any request
// submitted after, or still pending at, Destroy.
var ErrPoolDestroyed = errors.New("decode: pool destroyed")

// Request is one decode job. Bytes must already be sliced to exactly the
// window the worker needs (see SliceWindow) and ownership transfers to
// the pool for the duration of the call.
type Request struct {
	ID                 uint64
	Bytes              []byte
	Width, Height      int
	Encoding           container.EncodingType
	PaletteGroupOffset uint16
	TrimTop, TrimBottom int
}

// Result correlates back to a Request by ID. Indices is nil when Err is
// set.
type Result struct {
	ID      uint64
	Indices []uint16
	Err     error
}

// SliceWindow returns how many bytes the caller should transfer for an
// image of the given dimensions, per spec §4.5: max(8KiB, w*h*2).
func SliceWindow(width, height int) int {
	need := width * height * 2
	if need < minSliceBytes {
		return minSliceBytes
	}
	return need
}

type job struct {
	req    Request
	respCh chan<- Result
}

// Pool is the decoder pool resource. One Pool is shared process-wide by
// the orchestrator (spec §4.5/§5).
type Pool struct {
	logger logging.Logger

	workers []chan job
	next    atomic.Uint64

	mu        sync.Mutex
	destroyed bool
	pending   map[uint64]chan<- Result

	wg sync.WaitGroup
}

// New creates a pool sized to min(requested, available parallelism, 8).
// requested <= 0 means "use available parallelism".
func New(requested int, logger logging.Logger) *Pool {
	if logger == nil {
		logger = logging.Nop()
	}
	size := requested
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	if avail := runtime.GOMAXPROCS(0); size > avail {
		size = avail
	}
	if size > MaxWorkers {
		size = MaxWorkers
	}
	if size < 1 {
		size = 1
	}

	p := &Pool{
		logger:  logger,
		workers: make([]chan job, size),
		pending: make(map[uint64]chan<- Result),
	}

	for i := range p.workers {
		ch := make(chan job, 4)
		p.workers[i] = ch
		p.wg.Add(1)
		go p.runWorker(ch)
	}
	return p
}

func (p *Pool) runWorker(ch <-chan job) {
	defer p.wg.Done()
	for j := range ch {
		if j.req.Width == 0 && j.req.Height == 0 && len(j.req.Bytes) == 0 {
			// warm-up ping: nothing to decode.
			p.deliver(j.req.ID, Result{ID: j.req.ID})
			continue
		}
		indices := rle.Decode(rle.Request{
			Body:               j.req.Bytes,
			Width:              j.req.Width,
			Height:             j.req.Height,
			Encoding:           j.req.Encoding,
			PaletteGroupOffset: j.req.PaletteGroupOffset,
			TrimTop:            j.req.TrimTop,
			TrimBottom:         j.req.TrimBottom,
		})
		p.deliver(j.req.ID, Result{ID: j.req.ID, Indices: indices})
	}
}

func (p *Pool) deliver(id uint64, res Result) {
	p.mu.Lock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()
	if ok {
		ch <- res
	}
}

// Decode submits req and returns a channel that receives exactly one
// Result. Dispatch is round-robin; completion order across different
// requests is unspecified (spec §4.5 "Ordering guarantees").
func (p *Pool) Decode(req Request) <-chan Result {
	respCh := make(chan Result, 1)

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		respCh <- Result{ID: req.ID, Err: ErrPoolDestroyed}
		return respCh
	}
	p.pending[req.ID] = respCh
	p.mu.Unlock()

	worker := p.workers[p.next.Add(1)%uint64(len(p.workers))]
	worker <- job{req: req, respCh: respCh}
	return respCh
}

// WarmUp dispatches a zero-size ping to every worker and waits for all of
// them to respond, so first-use latency is paid eagerly (spec §4.5).
func (p *Pool) WarmUp() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrPoolDestroyed
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan error, len(p.workers))
	for i, w := range p.workers {
		wg.Add(1)
		go func(idx int, ch chan job) {
			defer wg.Done()
			id := uint64(1<<63) + uint64(idx) // reserved id range for warm-up pings
			respCh := make(chan Result, 1)
			p.mu.Lock()
			if p.destroyed {
				p.mu.Unlock()
				errCh <- ErrPoolDestroyed
				return
			}
			p.pending[id] = respCh
			p.mu.Unlock()
			ch <- job{req: Request{ID: id}, respCh: respCh}
			<-respCh
		}(i, w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	p.logger.Debugf("decode pool warmed up (%d workers)", len(p.workers))
	return nil
}

// Destroy terminates every worker and rejects all pending futures (spec
// §4.5 "destroy()"). It is the only cancellation path.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	pending := p.pending
	p.pending = make(map[uint64]chan<- Result)
	p.mu.Unlock()

	for id, ch := range pending {
		ch <- Result{ID: id, Err: ErrPoolDestroyed}
	}
	for _, w := range p.workers {
		close(w)
	}
	p.wg.Wait()
	p.logger.Infof("decode pool destroyed")
}

// Size reports the number of worker goroutines.
func (p *Pool) Size() int { return len(p.workers) }

func (p *Pool) String() string {
	return fmt.Sprintf("decode.Pool{workers=%d}", len(p.workers))
}
