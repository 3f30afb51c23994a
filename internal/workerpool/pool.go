// Package workerpool implements the peer I/O workers that own sessions,
// push map/chat broadcasts, and accept new connections from the shared
// listener (spec.md §4.5).
package workerpool

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"arcade/internal/config"
	"arcade/internal/logx"
	"arcade/internal/world"
)

// resizePoll is how often the pool compares its worker count against the
// live "workers" tunable (SPEC_FULL.md §A.2).
const resizePoll = 2 * time.Second

// Pool owns N symmetric workers sharing one listener, and resizes that
// set at runtime to track watcher's live worker-count tunable instead of
// freezing it at the value read at startup.
type Pool struct {
	mu       sync.Mutex
	workers  []*Worker
	nextID   int
	listener *net.TCPListener
	world    *world.World
	rng      *rand.Rand
	width    int
	height   int
	watcher  *config.Watcher

	log *logx.Logger
}

// New builds a pool of n workers bound to listener, all sharing w. rng
// must be the same instance passed to the simulator — all spawn-position
// selection happens under the world lock, so one shared rand.Rand is
// race-free. watcher supplies the live worker-count tunable Run's resize
// monitor tracks afterward.
func New(n int, listener *net.TCPListener, w *world.World, rng *rand.Rand, width, height int, watcher *config.Watcher) *Pool {
	p := &Pool{
		listener: listener,
		world:    w,
		rng:      rng,
		width:    width,
		height:   height,
		watcher:  watcher,
		log:      logx.Component("pool"),
	}
	for i := 0; i < n; i++ {
		p.workers = append(p.workers, p.spawnLocked())
	}
	return p
}

// spawnLocked builds and registers one new worker. Safe to call from New
// (before any goroutine can see p) or with p.mu held.
func (p *Pool) spawnLocked() *Worker {
	wk := NewWorker(p.nextID, p.listener, p.world, p.rng, p.width, p.height)
	p.nextID++
	return wk
}

// Run starts every worker and blocks until all of them exit (which
// happens once the world's running flag clears), while a background
// monitor grows or shrinks the pool to match the live workers tunable.
func (p *Pool) Run() {
	var wg sync.WaitGroup

	p.mu.Lock()
	for _, wk := range p.workers {
		p.launch(&wg, wk)
	}
	n := len(p.workers)
	p.mu.Unlock()
	p.log.Info().Int("workers", n).Msg("worker pool started")

	go p.resizeLoop(&wg)

	wg.Wait()
}

func (p *Pool) launch(wg *sync.WaitGroup, wk *Worker) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		wk.Run()
	}()
}

// resizeLoop periodically reconciles the running worker count against
// watcher.Tunables().Workers until the world stops.
func (p *Pool) resizeLoop(wg *sync.WaitGroup) {
	for p.world.Running() {
		time.Sleep(resizePoll)
		p.resizeTo(p.watcher.Tunables().Workers, wg)
	}
}

// resizeTo spawns additional workers if want exceeds the current count,
// or retires the excess (highest-ID first) if want is smaller. A
// non-positive want is ignored — the pool never scales to zero workers.
func (p *Pool) resizeTo(want int, wg *sync.WaitGroup) {
	if want <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	have := len(p.workers)
	switch {
	case want > have:
		for i := have; i < want; i++ {
			wk := p.spawnLocked()
			p.workers = append(p.workers, wk)
			p.launch(wg, wk)
		}
		p.log.Info().Int("workers", want).Msg("worker pool grown")
	case want < have:
		retiring := p.workers[want:]
		p.workers = p.workers[:want]
		for _, wk := range retiring {
			wk.Retire()
		}
		p.log.Info().Int("workers", want).Msg("worker pool shrunk")
	}
}
