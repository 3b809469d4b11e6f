package ugen

import (
	"sync"
	"sync/atomic"
)

const (
	chunkBits = 8
	chunkSize = 1 << chunkBits
)

// handle addresses a node in the arena. Zero value is never valid.
type handle struct {
	index uint32
	gen   uint32
}

// port is a reference to the output of a node.
type port struct {
	src handle
	out int
}

type chunk [chunkSize]atomic.Pointer[entry]

// arena stores nodes of a single context. Lookups are lock-free, slots
// of killed nodes are recycled with incremented generation so stale
// handles resolve to nothing.
type arena struct {
	mu     sync.Mutex
	chunks atomic.Pointer[[]*chunk]
	size   uint32
	free   []uint32
	live   atomic.Int64
}

func (a *arena) loadChunks() []*chunk {
	if p := a.chunks.Load(); p != nil {
		return *p
	}
	return nil
}

func (a *arena) slot(index uint32) *atomic.Pointer[entry] {
	chunks := a.loadChunks()
	return &chunks[index>>chunkBits][index&(chunkSize-1)]
}

// add puts entry into a free slot and returns its handle.
func (a *arena) add(e *entry) handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
		e.gen = a.slot(index).Load().gen + 1
		if e.gen == 0 {
			e.gen = 1
		}
	} else {
		index = a.size
		a.size++
		chunks := a.loadChunks()
		if int(index>>chunkBits) >= len(chunks) {
			grown := make([]*chunk, len(chunks)+1)
			copy(grown, chunks)
			grown[len(chunks)] = new(chunk)
			a.chunks.Store(&grown)
		}
		e.gen = 1
	}
	a.slot(index).Store(e)
	a.live.Add(1)
	return handle{index: index, gen: e.gen}
}

// get returns live entry for the handle or nil if node was deleted.
func (a *arena) get(h handle) *entry {
	if h.gen == 0 {
		return nil
	}
	chunks := a.loadChunks()
	c := int(h.index >> chunkBits)
	if c >= len(chunks) {
		return nil
	}
	e := chunks[c][h.index&(chunkSize-1)].Load()
	if e == nil || e.gen != h.gen || e.deleted() {
		return nil
	}
	return e
}

// release returns the slot of the handle for reuse.
func (a *arena) release(h handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.gen == 0 || h.index >= a.size {
		return
	}
	if e := a.slot(h.index).Load(); e != nil && e.gen == h.gen && !e.released {
		e.released = true
		a.free = append(a.free, h.index)
		a.live.Add(-1)
	}
}

// count returns number of live nodes.
func (a *arena) count() int {
	return int(a.live.Load())
}
