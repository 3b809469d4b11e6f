package ugens

import (
	"sync"

	"github.com/dudk/ugen"
)

// segment moves envelope value to end within duration.
type segment struct {
	end     float64
	ms      float64
	trigger ugen.Listener
}

// Envelope outputs a value that follows a queue of linear segments. When a
// segment is complete, its trigger receives a message from the envelope
// node.
type Envelope struct {
	mu        sync.Mutex
	value     float64
	segments  []segment
	remaining float64
	active    bool
	locked    bool

	// audio goroutine only.
	fired []ugen.Listener
}

// NewEnvelope returns envelope with provided start value.
func NewEnvelope(start float64) *Envelope {
	return &Envelope{value: start}
}

// Node adds envelope to the context.
func (e *Envelope) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(e, 0, 1, options...)
}

// AddSegment appends segment that reaches end value within duration in
// milliseconds. Trigger is optional. It's ignored if envelope is locked.
func (e *Envelope) AddSegment(end, ms float64, trigger ugen.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return
	}
	e.segments = append(e.segments, segment{end: end, ms: ms, trigger: trigger})
}

// SetValue clears segments and sets current value.
func (e *Envelope) SetValue(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return
	}
	e.clear()
	e.value = v
}

// Clear removes all segments. Current value is kept.
func (e *Envelope) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return
	}
	e.clear()
}

func (e *Envelope) clear() {
	e.segments = nil
	e.active = false
}

// Lock forbids changes of segments and value.
func (e *Envelope) Lock(locked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = locked
}

// Value returns current value.
func (e *Envelope) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Len returns number of pending segments, current one included.
func (e *Envelope) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.segments)
}

// Process implements ugen.Processor.
func (e *Envelope) Process(b *ugen.Block) {
	e.mu.Lock()
	out := b.Out[0]
	for i := range out {
		e.step(b.Context())
		out[i] = e.value
	}
	fired := e.fired
	e.fired = e.fired[:0]
	e.mu.Unlock()

	// triggers could modify the envelope.
	for _, l := range fired {
		l.Message(b.Node())
	}
}

// step advances envelope by a single sample. Segments shorter than a
// sample complete without consuming it.
func (e *Envelope) step(ctx *ugen.Context) {
	for len(e.segments) > 0 {
		s := e.segments[0]
		if !e.active {
			e.remaining = ctx.MsToSamples(s.ms)
			e.active = true
		}
		if e.remaining >= 1 {
			e.value += (s.end - e.value) / e.remaining
			e.remaining--
			if e.remaining < 1 {
				e.complete(s)
			}
			return
		}
		e.complete(s)
	}
}

func (e *Envelope) complete(s segment) {
	e.value = s.end
	e.segments = e.segments[1:]
	e.active = false
	if s.trigger != nil {
		e.fired = append(e.fired, s.trigger)
	}
}
