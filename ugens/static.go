package ugens

import (
	"math"
	"sync/atomic"

	"github.com/dudk/ugen"
)

// Static outputs a constant value. It has no buffer: consumers read the
// value per sample.
type Static struct {
	value atomic.Uint64
}

// NewStatic returns static with provided value.
func NewStatic(v float64) *Static {
	s := &Static{}
	s.SetValue(v)
	return s
}

// Node adds static to the context.
func (s *Static) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(s, 0, 1, append([]ugen.NodeOption{ugen.WithInit(ugen.InitNull)}, options...)...)
}

// SetValue sets the value. It's safe to call from any goroutine.
func (s *Static) SetValue(v float64) {
	s.value.Store(math.Float64bits(v))
}

// Process implements ugen.Processor.
func (s *Static) Process(*ugen.Block) {}

// Value implements ugen.Valuer.
func (s *Static) Value(int, int) float64 {
	return math.Float64frombits(s.value.Load())
}
