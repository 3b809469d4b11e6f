package ugen

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	stateActive int32 = iota
	statePaused
	stateDeleted
)

type (
	// Listener receives messages from nodes.
	Listener interface {
		Message(from Node)
	}

	// ListenerFunc allows to use ordinary functions as listeners.
	ListenerFunc func(from Node)

	// Receiver is implemented by processors that react to messages sent
	// to their node.
	Receiver interface {
		Receive(from Node)
	}
)

// Message calls fn(from).
func (fn ListenerFunc) Message(from Node) {
	fn(from)
}

func (e *entry) paused() bool {
	return e.state.Load() == statePaused
}

func (e *entry) deleted() bool {
	return e.state.Load() == stateDeleted
}

// Pause pauses or resumes the node. Paused node is not computed and its
// outputs follow the pause policy.
func (n Node) Pause(paused bool) {
	e := n.entry()
	if e == nil {
		return
	}
	from, to := stateActive, statePaused
	if !paused {
		from, to = to, from
	}
	e.state.CompareAndSwap(from, to)
}

// Paused returns true if node is paused.
func (n Node) Paused() bool {
	if e := n.entry(); e != nil {
		return e.paused()
	}
	return false
}

// Deleted returns true if node was killed or never existed.
func (n Node) Deleted() bool {
	return n.entry() == nil
}

// Kill deletes the node. References to it are pruned from connection and
// dependents lists when they are traversed next time. Kill listeners are
// notified once. Proxies of the node are killed as well. Root node of the
// context can't be killed. If processor implements io.Closer, it's closed
// on the audio goroutine at the end of the next block.
func (n Node) Kill() {
	e := n.entry()
	if e == nil || n == n.ctx.Out {
		return
	}
	if prev := e.state.Swap(stateDeleted); prev == stateDeleted {
		return
	}
	e.mu.Lock()
	listeners := e.killListeners
	e.killListeners = nil
	pin, pout := e.proxyIn, e.proxyOut
	e.mu.Unlock()

	n.ctx.nodes.release(n.h)
	n.ctx.meter.NodeRemoved()
	n.ctx.log.WithFields(logrus.Fields{
		"node":  e.id.String(),
		"name":  e.name,
		"nodes": n.ctx.nodes.count(),
	}).Debug("node killed")

	if c, ok := e.proc.(io.Closer); ok {
		n.ctx.closeLater(e.id.String(), c)
	}
	for _, h := range []handle{pin, pout} {
		Node{ctx: n.ctx, h: h}.Kill()
	}
	for _, l := range listeners {
		l.Message(n)
	}
}

// OnKill registers listener notified when the node is killed. Listener is
// notified immediately if node is already deleted.
func (n Node) OnKill(l Listener) {
	e := n.entry()
	if e == nil {
		l.Message(n)
		return
	}
	e.mu.Lock()
	if e.deleted() {
		e.mu.Unlock()
		l.Message(n)
		return
	}
	e.killListeners = append(e.killListeners, l)
	e.mu.Unlock()
}

// Message delivers message to the processor of the node if it implements
// Receiver. Messages to paused and deleted nodes are dropped.
func (n Node) Message(from Node) {
	e := n.entry()
	if e == nil || e.paused() {
		return
	}
	if r, ok := e.proc.(Receiver); ok {
		r.Receive(from)
	}
}

// Send delivers message from the node to listener. Delivery is
// synchronous.
func (n Node) Send(l Listener) {
	if l != nil {
		l.Message(n)
	}
}

// KillTrigger returns listener that kills the node on any message.
func KillTrigger(n Node) Listener {
	return ListenerFunc(func(Node) {
		n.Kill()
	})
}

// PauseTrigger returns listener that pauses the node on any message.
func PauseTrigger(n Node) Listener {
	return ListenerFunc(func(Node) {
		n.Pause(true)
	})
}

// ResumeTrigger returns listener that resumes the node on any message.
func ResumeTrigger(n Node) Listener {
	return ListenerFunc(func(Node) {
		n.Pause(false)
	})
}

// Listeners returns listener that delivers messages to every provided
// listener in order.
func Listeners(ls ...Listener) Listener {
	return ListenerFunc(func(from Node) {
		for _, l := range ls {
			if l != nil {
				l.Message(from)
			}
		}
	})
}
