package ugens

import (
	"github.com/dudk/ugen"
	"github.com/dudk/ugen/signal"
)

// Gain multiplies every input by the gain control.
type Gain struct {
	channels int
	gain     *ugen.Control
}

// NewGain returns gain with provided number of channels.
func NewGain(channels int, gain float64) *Gain {
	return &Gain{
		channels: channels,
		gain:     ugen.NewControl(gain),
	}
}

// Node adds gain to the context.
func (g *Gain) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(g, g.channels, g.channels, options...)
}

// Gain returns the gain control.
func (g *Gain) Gain() *ugen.Control {
	return g.gain
}

// Controls implements ugen.Controller.
func (g *Gain) Controls() map[string]*ugen.Control {
	return map[string]*ugen.Control{"gain": g.gain}
}

// Process implements ugen.Processor.
func (g *Gain) Process(b *ugen.Block) {
	g.gain.Pull(b)
	for j, out := range b.Out {
		in := b.In[j]
		for i := range out {
			out[i] = in[i] * g.gain.At(i)
		}
	}
}

// Sum mixes all inputs into a single output.
type Sum struct {
	ins int
}

// NewSum returns sum with provided number of inputs.
func NewSum(ins int) *Sum {
	return &Sum{ins: ins}
}

// Node adds sum to the context.
func (s *Sum) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(s, s.ins, 1, options...)
}

// Process implements ugen.Processor.
func (s *Sum) Process(b *ugen.Block) {
	out := b.Out[0]
	signal.Fill(out, 0)
	for _, in := range b.In {
		signal.Accumulate(out, in)
	}
}

// RangeLimiter forces signal into [-1, 1].
type RangeLimiter struct {
	channels int
}

// NewRangeLimiter returns limiter with provided number of channels.
func NewRangeLimiter(channels int) *RangeLimiter {
	return &RangeLimiter{channels: channels}
}

// Node adds limiter to the context.
func (r *RangeLimiter) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(r, r.channels, r.channels, options...)
}

// Process implements ugen.Processor.
func (r *RangeLimiter) Process(b *ugen.Block) {
	for j, out := range b.Out {
		in := b.In[j]
		for i := range out {
			out[i] = signal.Clamp(in[i])
		}
	}
}

// GainLimiter is a gain followed by range limiter presented as a single
// node.
type GainLimiter struct {
	gain    *Gain
	limiter *RangeLimiter
}

// NewGainLimiter returns gain limiter with provided number of channels.
func NewGainLimiter(channels int, gain float64) *GainLimiter {
	return &GainLimiter{
		gain:    NewGain(channels, gain),
		limiter: NewRangeLimiter(channels),
	}
}

// Node adds gain limiter and its inner nodes to the context.
func (g *GainLimiter) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	n := ctx.New(g, g.gain.channels, g.gain.channels, options...)
	gain := g.gain.Node(ctx, ugen.WithName("gain"))
	limiter := g.limiter.Node(ctx, ugen.WithName("limiter"))
	// errors are not possible: all nodes are alive and of the same context.
	_ = n.SetInputProxy(gain)
	_ = n.SetOutputProxy(limiter)
	return n
}

// Gain returns the gain control.
func (g *GainLimiter) Gain() *ugen.Control {
	return g.gain.gain
}

// Controls implements ugen.Controller.
func (g *GainLimiter) Controls() map[string]*ugen.Control {
	return g.gain.Controls()
}

// Process is not called: computation is done by inner nodes.
func (g *GainLimiter) Process(*ugen.Block) {}
