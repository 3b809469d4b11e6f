package ugen

import (
	"math"
	"sort"
	"sync/atomic"
)

// Controller is implemented by processors that expose parameters which can
// be driven by other nodes.
type Controller interface {
	Controls() map[string]*Control
}

// Control is a parameter of a node. It holds a static value or follows
// the first output of a bound node.
type Control struct {
	value atomic.Uint64
	bound atomic.Pointer[Node]

	// set by Pull, audio goroutine only.
	cur *entry
}

// NewControl returns control with static value.
func NewControl(v float64) *Control {
	c := &Control{}
	c.Set(v)
	return c
}

// Set sets static value.
func (c *Control) Set(v float64) {
	c.value.Store(math.Float64bits(v))
}

// Value returns static value.
func (c *Control) Value() float64 {
	return math.Float64frombits(c.value.Load())
}

// Bind makes control follow the node. Zero node unbinds the control.
func (c *Control) Bind(n Node) {
	if n == (Node{}) {
		c.bound.Store(nil)
		return
	}
	c.bound.Store(&n)
}

// Unbind returns control to its static value.
func (c *Control) Unbind() {
	c.bound.Store(nil)
}

// Bound returns the node control follows.
func (c *Control) Bound() (Node, bool) {
	if n := c.bound.Load(); n != nil && !n.Deleted() {
		return *n, true
	}
	return Node{}, false
}

// Pull computes the bound node for the current block. It must be called
// from Process before At is used. Deleted nodes are unbound.
func (c *Control) Pull(b *Block) {
	c.cur = nil
	n := c.bound.Load()
	if n == nil {
		return
	}
	e := n.entry()
	if e == nil || n.ctx != b.Context() {
		c.bound.CompareAndSwap(n, nil)
		return
	}
	e.update(n.ctx)
	if e.outs > 0 {
		c.cur = e
	}
}

// At returns value of the control at sample i of the current block.
func (c *Control) At(i int) float64 {
	if c.cur != nil {
		return c.cur.value(0, i)
	}
	return c.Value()
}

// Control returns control of the node by name.
func (n Node) Control(name string) (*Control, bool) {
	e := n.entry()
	if e == nil {
		return nil, false
	}
	ctrl, ok := e.proc.(Controller)
	if !ok {
		return nil, false
	}
	c, ok := ctrl.Controls()[name]
	return c, ok
}

// Controls returns sorted names of node controls.
func (n Node) Controls() []string {
	e := n.entry()
	if e == nil {
		return nil
	}
	ctrl, ok := e.proc.(Controller)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(ctrl.Controls()))
	for name := range ctrl.Controls() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
