// Package mock provides nodes and sinks with counters for testing ugen
// graphs.
package mock

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/signal"
)

// ErrSink is returned by Sink once its limit is reached.
var ErrSink = errors.New("mock sink limit reached")

type (
	// Constant fills every output with Value and counts computations.
	Constant struct {
		Value float64
		calls atomic.Int64
	}

	// Sum writes sum of all inputs to every output and counts
	// computations.
	Sum struct {
		calls atomic.Int64
	}

	// Valuer is a Null-policy processor that returns Level for every
	// sample.
	Valuer struct {
		Level float64
		calls atomic.Int64
	}

	// Receiver records messages delivered to its node.
	Receiver struct {
		mu       sync.Mutex
		messages []ugen.Node
	}

	// Closer counts Close calls.
	Closer struct {
		Constant
		closed atomic.Int64
	}

	// Sink accumulates written blocks. It returns ErrSink when Limit
	// blocks were written, zero Limit means no limit.
	Sink struct {
		Limit  int
		mu     sync.Mutex
		buffer signal.Float64
		blocks int
	}
)

// Process implements ugen.Processor.
func (c *Constant) Process(b *ugen.Block) {
	c.calls.Add(1)
	for _, out := range b.Out {
		signal.Fill(out, c.Value)
	}
}

// Calls returns number of computations.
func (c *Constant) Calls() int64 {
	return c.calls.Load()
}

// Process implements ugen.Processor.
func (s *Sum) Process(b *ugen.Block) {
	s.calls.Add(1)
	for _, out := range b.Out {
		signal.Fill(out, 0)
		for _, in := range b.In {
			signal.Accumulate(out, in)
		}
	}
}

// Calls returns number of computations.
func (s *Sum) Calls() int64 {
	return s.calls.Load()
}

// Process implements ugen.Processor.
func (v *Valuer) Process(*ugen.Block) {
	v.calls.Add(1)
}

// Value implements ugen.Valuer.
func (v *Valuer) Value(int, int) float64 {
	return v.Level
}

// Calls returns number of computations.
func (v *Valuer) Calls() int64 {
	return v.calls.Load()
}

// Process implements ugen.Processor.
func (r *Receiver) Process(b *ugen.Block) {
	for _, out := range b.Out {
		signal.Fill(out, 0)
	}
}

// Receive implements ugen.Receiver.
func (r *Receiver) Receive(from ugen.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, from)
}

// Messages returns senders of received messages.
func (r *Receiver) Messages() []ugen.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ugen.Node(nil), r.messages...)
}

// Close implements io.Closer.
func (c *Closer) Close() error {
	c.closed.Add(1)
	return nil
}

// Closed returns number of Close calls.
func (c *Closer) Closed() int64 {
	return c.closed.Load()
}

// Write implements ugen.Sink.
func (s *Sink) Write(block [][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Limit > 0 && s.blocks >= s.Limit {
		return ErrSink
	}
	s.buffer = s.buffer.Append(block)
	s.blocks++
	return nil
}

// Blocks returns number of written blocks.
func (s *Sink) Blocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks
}

// Buffer returns copy of all written samples.
func (s *Sink) Buffer() signal.Float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Copy()
}
