package ugen

import (
	"time"

	"github.com/dudk/ugen/metric"
)

// update computes outputs of the node for the current time step. It's
// called on the audio goroutine only.
func (e *entry) update(c *Context) {
	if e.paused() {
		e.pauseOuts(c)
		return
	}
	step := c.step.Load()
	if e.lastStep == step {
		return
	}
	// set before recursion: a cycle that reaches this node again reads
	// outputs of the previous step.
	e.lastStep = step
	if e.timer.Load() {
		defer e.measure(time.Now())
	}

	e.updateDependents(c)
	e.updateInputs(c)

	if in, out, ok := e.proxies(c); ok {
		e.computeProxy(c, in, out)
	} else {
		e.compute(c)
	}

	// processor could pause the node, for example by message.
	if e.paused() {
		e.pauseOuts(c)
	}
}

func (e *entry) measure(start time.Time) {
	e.lastTime.Store(int64(time.Since(start)))
}

// compute prepares outputs and calls processor.
func (e *entry) compute(c *Context) {
	e.initOuts(c)
	e.block.In = e.bufIn
	e.block.Out = e.bufOut
	e.proc.Process(&e.block)
}

func (e *entry) initOuts(c *Context) {
	e.retained = false
	switch e.initPolicy {
	case InitZero:
		for i := range e.bufOut {
			e.bufOut[i] = c.pool.Clean()
		}
	case InitNull:
		for i := range e.bufOut {
			e.bufOut[i] = nil
		}
	case InitRetain:
		copy(e.bufOut, e.own)
	default:
		for i := range e.bufOut {
			e.bufOut[i] = c.pool.Junk()
		}
	}
}

// pauseOuts applies pause policy to outputs.
func (e *entry) pauseOuts(c *Context) {
	if e.pausePolicy == PauseZero {
		zero := c.pool.Zero()
		for i := range e.bufOut {
			e.bufOut[i] = zero
		}
		return
	}
	if e.retained {
		return
	}
	// pooled buffers are recycled, retained block is kept in own buffers.
	if e.own == nil {
		e.own = make([][]float64, e.outs)
		for i := range e.own {
			e.own[i] = make([]float64, c.bufferSize)
		}
	}
	for i, b := range e.bufOut {
		switch {
		case b == nil:
			v, ok := e.proc.(Valuer)
			for j := range e.own[i] {
				if ok {
					e.own[i][j] = v.Value(i, j)
				} else {
					e.own[i][j] = 0
				}
			}
		case len(b) > 0 && &b[0] == &e.own[i][0]:
		default:
			copy(e.own[i], b)
		}
		e.bufOut[i] = e.own[i]
	}
	e.retained = true
}

func (e *entry) updateDependents(c *Context) {
	e.mu.Lock()
	dependents := e.dependents
	e.mu.Unlock()

	var dead bool
	for _, h := range dependents {
		d := c.nodes.get(h)
		if d == nil {
			dead = true
			continue
		}
		d.update(c)
	}
	if dead {
		e.pruneDependents(c)
	}
}

// source is a resolved connection.
type source struct {
	*entry
	out int
}

// updateInputs pulls sources of every input and resolves input buffers.
func (e *entry) updateInputs(c *Context) {
	e.mu.Lock()
	inputs, noInputs := e.inputs, e.noInputs
	e.mu.Unlock()

	zero := c.pool.Zero()
	if noInputs {
		for i := range e.bufIn {
			e.bufIn[i] = zero
		}
		return
	}

	var dead bool
	for i, ports := range inputs {
		// sources killed while pulled still contribute to this step.
		live := e.live[:0]
		for _, p := range ports {
			src := c.nodes.get(p.src)
			if src == nil {
				dead = true
				continue
			}
			src.update(c)
			live = append(live, source{entry: src, out: p.out})
		}
		e.live = live
		switch len(live) {
		case 0:
			e.bufIn[i] = zero
		case 1:
			e.bufIn[i] = live[0].output(live[0].out, c.pool)
		default:
			buf := c.pool.Clean()
			for _, src := range live {
				src.accumulate(src.out, buf)
			}
			e.bufIn[i] = buf
		}
	}
	if dead {
		e.pruneInputs(c)
	}
}

// pruneInputs removes connections to deleted nodes.
func (e *entry) pruneInputs(c *Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inputs := make([][]port, len(e.inputs))
	var connected bool
	for i, ports := range e.inputs {
		for _, p := range ports {
			if c.nodes.get(p.src) == nil {
				c.meter.Pruned(metric.InputsList)
				continue
			}
			inputs[i] = append(inputs[i], p)
		}
		connected = connected || len(inputs[i]) > 0
	}
	e.inputs = inputs
	e.noInputs = !connected
}

// pruneDependents removes deleted dependents.
func (e *entry) pruneDependents(c *Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	dependents := make([]handle, 0, len(e.dependents))
	for _, h := range e.dependents {
		if c.nodes.get(h) == nil {
			c.meter.Pruned(metric.DependentsList)
			continue
		}
		dependents = append(dependents, h)
	}
	e.dependents = dependents
}
