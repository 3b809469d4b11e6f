package ugen

import "fmt"

// Connection is a reference to an output of the source node.
type Connection struct {
	Source Node
	Output int
}

// Connect appends output of the source to the input of the node.
func (n Node) Connect(input int, source Node, output int) error {
	e, src, err := check(n, source)
	if err != nil {
		return err
	}
	if input < 0 || input >= e.ins {
		return fmt.Errorf("%v input %d: %w", n, input, ErrInvalidChannel)
	}
	if output < 0 || output >= src.outs {
		return fmt.Errorf("%v output %d: %w", source, output, ErrInvalidChannel)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connect(input, port{src: source.h, out: output})
	return nil
}

// ConnectAll connects every output of the source to inputs of the node.
// Outputs are cycled if node has more inputs than source has outputs. It's
// no-op if source has no outputs or node has no inputs.
func (n Node) ConnectAll(source Node) error {
	e, src, err := check(n, source)
	if err != nil {
		return err
	}
	if e.ins == 0 || src.outs == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < e.ins; i++ {
		e.connect(i, port{src: source.h, out: i % src.outs})
	}
	return nil
}

// connect must be called under lock. Lists are copied so snapshots taken
// by the audio goroutine stay intact.
func (e *entry) connect(input int, p port) {
	inputs := make([][]port, len(e.inputs))
	copy(inputs, e.inputs)
	ports := make([]port, len(inputs[input]), len(inputs[input])+1)
	copy(ports, inputs[input])
	inputs[input] = append(ports, p)
	e.inputs = inputs
	e.noInputs = false
}

// Disconnect removes a single connection.
func (n Node) Disconnect(input int, source Node, output int) {
	if source.ctx != n.ctx {
		return
	}
	n.disconnect(func(i int, p port) bool {
		return i == input && p.src == source.h && p.out == output
	})
}

// DisconnectAll removes every connection from the source.
func (n Node) DisconnectAll(source Node) {
	if source.ctx != n.ctx {
		return
	}
	n.disconnect(func(_ int, p port) bool {
		return p.src == source.h
	})
}

// ClearInputs removes all connections.
func (n Node) ClearInputs() {
	n.disconnect(func(int, port) bool {
		return true
	})
}

func (n Node) disconnect(match func(int, port) bool) {
	e := n.entry()
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	inputs := make([][]port, len(e.inputs))
	var connected bool
	for i, ports := range e.inputs {
		for _, p := range ports {
			if !match(i, p) {
				inputs[i] = append(inputs[i], p)
			}
		}
		connected = connected || len(inputs[i]) > 0
	}
	e.inputs = inputs
	e.noInputs = !connected
}

// Connections returns connections of the input. Deleted sources are
// included until the input is pulled.
func (n Node) Connections(input int) []Connection {
	e := n.entry()
	if e == nil || input < 0 || input >= e.ins {
		return nil
	}
	e.mu.Lock()
	ports := e.inputs[input]
	e.mu.Unlock()
	result := make([]Connection, 0, len(ports))
	for _, p := range ports {
		result = append(result, Connection{Source: Node{ctx: n.ctx, h: p.src}, Output: p.out})
	}
	return result
}

// Contains returns true if source is connected to any input of the node.
func (n Node) Contains(source Node) bool {
	e := n.entry()
	if e == nil || source.ctx != n.ctx {
		return false
	}
	e.mu.Lock()
	inputs := e.inputs
	e.mu.Unlock()
	for _, ports := range inputs {
		for _, p := range ports {
			if p.src == source.h {
				return true
			}
		}
	}
	return false
}

// Sources returns distinct nodes connected to inputs in order of
// connection.
func (n Node) Sources() []Node {
	e := n.entry()
	if e == nil {
		return nil
	}
	e.mu.Lock()
	inputs := e.inputs
	e.mu.Unlock()
	var sources []Node
	seen := make(map[handle]struct{})
	for _, ports := range inputs {
		for _, p := range ports {
			if _, ok := seen[p.src]; ok {
				continue
			}
			seen[p.src] = struct{}{}
			sources = append(sources, Node{ctx: n.ctx, h: p.src})
		}
	}
	return sources
}

// NoInputs returns true if node has no connections.
func (n Node) NoInputs() bool {
	e := n.entry()
	if e == nil {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.noInputs
}

// AddDependent makes d computed every time the node is computed. Dependent
// outputs are not used.
func (n Node) AddDependent(d Node) error {
	e, _, err := check(n, d)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.dependents {
		if h == d.h {
			return nil
		}
	}
	dependents := make([]handle, len(e.dependents), len(e.dependents)+1)
	copy(dependents, e.dependents)
	e.dependents = append(dependents, d.h)
	return nil
}

// RemoveDependent removes d from dependents.
func (n Node) RemoveDependent(d Node) {
	e := n.entry()
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	dependents := make([]handle, 0, len(e.dependents))
	for _, h := range e.dependents {
		if h != d.h {
			dependents = append(dependents, h)
		}
	}
	e.dependents = dependents
}

// ClearDependents removes all dependents.
func (n Node) ClearDependents() {
	if e := n.entry(); e != nil {
		e.mu.Lock()
		e.dependents = nil
		e.mu.Unlock()
	}
}

// Dependents returns dependents of the node. Deleted dependents are
// included until the node is pulled.
func (n Node) Dependents() []Node {
	e := n.entry()
	if e == nil {
		return nil
	}
	e.mu.Lock()
	dependents := e.dependents
	e.mu.Unlock()
	result := make([]Node, 0, len(dependents))
	for _, h := range dependents {
		result = append(result, Node{ctx: n.ctx, h: h})
	}
	return result
}
