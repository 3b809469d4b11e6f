// Package repeat writes rendered blocks to multiple sinks.
package repeat

import (
	"errors"
	"fmt"
	"io"

	"github.com/dudk/ugen"
)

// Repeater is a sink that repeats every block to all of its sinks in
// order. Sinks must be added on the audio goroutine, see Add.
type Repeater struct {
	sinks []ugen.Sink
}

// New returns repeater of provided sinks.
func New(sinks ...ugen.Sink) *Repeater {
	return &Repeater{sinks: sinks}
}

// Add returns function that adds the sink. It should be pushed to the
// context, so the sink starts with the next block:
//
//	ctx.Push(context.Background(), repeater.Add(sink))
func (r *Repeater) Add(s ugen.Sink) func() {
	return func() {
		r.sinks = append(r.sinks, s)
	}
}

// Len returns number of sinks.
func (r *Repeater) Len() int {
	return len(r.sinks)
}

// Write implements ugen.Sink. Writing stops at the first failed sink.
func (r *Repeater) Write(block [][]float64) error {
	for i, s := range r.sinks {
		if err := s.Write(block); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer. All sinks are
// closed even if some fail.
func (r *Repeater) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
