/*
Package pool provides frame-scoped sample buffers for the engine.

Three kinds of buffers are issued:

	Zero  - one shared all-zero buffer, must never be written;
	Clean - zero-filled buffer owned by the caller for the current frame;
	Junk  - buffer with undefined content owned by the caller for the
	        current frame, every sample must be written before read.

Buffers are recycled in two alternating generations: a buffer issued
during frame t is not issued again before frame t+2. This keeps outputs
of the previous frame readable while the current frame is computed.
Acquisition never blocks: when the reserve is exhausted, new buffers are
allocated and kept for the following frames.
*/
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool issues buffers of fixed size.
type Pool struct {
	size    int
	zero    []float64
	gens    [2]generation
	current atomic.Int32
	allocs  atomic.Int64
	onGrow  func(total int)
}

// generation is a set of buffers recycled every other frame.
type generation struct {
	mu     sync.Mutex
	bufs   atomic.Pointer[[][]float64]
	cursor atomic.Int64
}

// Option configures the pool.
type Option func(*Pool)

// WithGrowHook sets a function called every time the pool allocates a
// buffer beyond its reserve. Total number of buffers is passed.
func WithGrowHook(fn func(total int)) Option {
	return func(p *Pool) {
		p.onGrow = fn
	}
}

// New returns a pool of buffers with provided size. Every generation
// preallocates reserve buffers.
func New(size, reserve int, options ...Option) *Pool {
	p := &Pool{
		size: size,
		zero: make([]float64, size),
	}
	for i := range p.gens {
		bufs := make([][]float64, reserve)
		for j := range bufs {
			bufs[j] = make([]float64, size)
		}
		p.gens[i].bufs.Store(&bufs)
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Size returns the length of issued buffers.
func (p *Pool) Size() int {
	return p.size
}

// Advance recycles buffers issued two frames ago. Must be called once per
// frame, before any buffer is acquired for that frame.
func (p *Pool) Advance() {
	next := 1 - p.current.Load()
	p.gens[next].cursor.Store(0)
	p.current.Store(next)
}

// Zero returns the shared zero buffer. It must be treated as read-only.
func (p *Pool) Zero() []float64 {
	return p.zero
}

// Clean returns a zero-filled buffer.
func (p *Pool) Clean() []float64 {
	b := p.Junk()
	for i := range b {
		b[i] = 0
	}
	return b
}

// Junk returns a buffer with undefined content.
func (p *Pool) Junk() []float64 {
	g := &p.gens[p.current.Load()]
	i := int(g.cursor.Add(1) - 1)
	if bufs := *g.bufs.Load(); i < len(bufs) {
		return bufs[i]
	}
	return p.grow(g, i)
}

// grow allocates buffers until index i is available.
func (p *Pool) grow(g *generation, i int) []float64 {
	g.mu.Lock()
	bufs := *g.bufs.Load()
	for len(bufs) <= i {
		bufs = append(bufs, make([]float64, p.size))
		p.allocs.Add(1)
	}
	g.bufs.Store(&bufs)
	g.mu.Unlock()
	if p.onGrow != nil {
		p.onGrow(p.Len())
	}
	return bufs[i]
}

// Len returns total number of buffers owned by the pool, zero buffer
// excluded.
func (p *Pool) Len() int {
	var n int
	for i := range p.gens {
		n += len(*p.gens[i].bufs.Load())
	}
	return n
}

// Allocations returns number of buffers allocated beyond the reserve.
func (p *Pool) Allocations() int64 {
	return p.allocs.Load()
}
