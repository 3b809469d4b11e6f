package ugens

import (
	"github.com/dudk/ugen"
)

// DelayTrigger sends a message to its listener once the delay has elapsed
// and kills itself. It has no inputs and outputs: it's computed as a
// dependent of the context root.
type DelayTrigger struct {
	ms        float64
	listener  ugen.Listener
	fireAfter bool

	delay     int64
	count     int64
	threshold int64
}

// NewDelayTrigger returns trigger with delay in milliseconds. By default
// trigger fires at the beginning of the block in which delay elapses.
func NewDelayTrigger(ms float64, l ugen.Listener) *DelayTrigger {
	return &DelayTrigger{
		ms:       ms,
		listener: l,
	}
}

// FireAfter makes trigger fire in the block after the delay elapses.
func (d *DelayTrigger) FireAfter(after bool) *DelayTrigger {
	d.fireAfter = after
	return d
}

// Node adds trigger to the context as a dependent of the root node.
func (d *DelayTrigger) Node(ctx *ugen.Context, options ...ugen.NodeOption) (ugen.Node, error) {
	d.delay = int64(ctx.MsToSamples(d.ms))
	d.threshold = int64(ctx.BufferSize())
	if d.fireAfter {
		d.threshold = 0
	}
	n := ctx.New(d, 0, 0, options...)
	if err := ctx.Out.AddDependent(n); err != nil {
		return ugen.Node{}, err
	}
	return n, nil
}

// Elapsed returns number of counted samples. Must be called from the audio
// goroutine.
func (d *DelayTrigger) Elapsed() int64 {
	return d.count
}

// Process implements ugen.Processor.
func (d *DelayTrigger) Process(b *ugen.Block) {
	if d.delay-d.count > d.threshold {
		d.count += int64(b.Size())
		return
	}
	b.Node().Send(d.listener)
	b.Node().Kill()
}
