package ugen

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/dudk/ugen/pool"
	"github.com/dudk/ugen/signal"
)

type (
	// Processor is the signal computation step of a node. It's called at
	// most once per time step, on the audio goroutine.
	Processor interface {
		Process(b *Block)
	}

	// ProcessorFunc allows to use ordinary functions as processors.
	ProcessorFunc func(b *Block)

	// Valuer provides per-sample access to outputs. Nodes with InitNull
	// policy implement it so consumers can read their signal.
	Valuer interface {
		Value(channel, i int) float64
	}

	// Block is passed to the processor on every computation.
	//
	// In buffers are read-only: they may alias outputs of other nodes or
	// the shared zero buffer. Out buffers are prepared according to the
	// init policy of the node. A processor may replace Out[i] with a
	// buffer it does not write to anymore during this step, for example
	// to pass an input through.
	Block struct {
		In   [][]float64
		Out  [][]float64
		node Node
	}
)

// Process calls fn(b).
func (fn ProcessorFunc) Process(b *Block) {
	fn(b)
}

// Size returns number of samples in the block.
func (b *Block) Size() int {
	return b.node.ctx.bufferSize
}

// Node returns the node being computed.
func (b *Block) Node() Node {
	return b.node
}

// Context returns the context of the node being computed.
func (b *Block) Context() *Context {
	return b.node.ctx
}

// InitPolicy defines how output buffers are prepared before computation.
type InitPolicy int

const (
	// InitJunk outputs are pooled buffers with undefined content. The
	// processor must write every sample.
	InitJunk InitPolicy = iota
	// InitZero outputs are zero-filled pooled buffers.
	InitZero
	// InitNull outputs are nil, consumers use the Valuer of the node.
	InitNull
	// InitRetain outputs are persistent buffers owned by the node.
	InitRetain
)

func (p InitPolicy) String() string {
	switch p {
	case InitJunk:
		return "junk"
	case InitZero:
		return "zero"
	case InitNull:
		return "null"
	case InitRetain:
		return "retain"
	}
	return "unknown"
}

// PausePolicy defines outputs of the paused node.
type PausePolicy int

const (
	// PauseZero paused node outputs silence.
	PauseZero PausePolicy = iota
	// PauseRetain paused node outputs its last computed block. If the node
	// was not pulled in the step before pausing, the block may hold stale
	// pool content.
	PauseRetain
)

func (p PausePolicy) String() string {
	switch p {
	case PauseZero:
		return "zero"
	case PauseRetain:
		return "retain"
	}
	return "unknown"
}

// NodeOption configures a node at creation.
type NodeOption func(*entry)

// WithInit sets output init policy.
func WithInit(p InitPolicy) NodeOption {
	return func(e *entry) {
		e.initPolicy = p
	}
}

// WithPause sets output pause policy.
func WithPause(p PausePolicy) NodeOption {
	return func(e *entry) {
		e.pausePolicy = p
	}
}

// WithName sets a name used in logs.
func WithName(name string) NodeOption {
	return func(e *entry) {
		e.name = name
	}
}

// entry is the arena representation of a node.
type entry struct {
	gen         uint32
	released    bool // guarded by arena
	id          xid.ID
	name        string
	proc        Processor
	ins, outs   int
	initPolicy  InitPolicy
	pausePolicy PausePolicy
	state       atomic.Int32

	// guarded by mu, slices are replaced on every change.
	mu            sync.Mutex
	inputs        [][]port
	dependents    []handle
	noInputs      bool
	proxyIn       handle
	proxyOut      handle
	killListeners []Listener

	timer    atomic.Bool
	lastTime atomic.Int64

	// accessed by the audio goroutine only.
	lastStep int64
	bufIn    [][]float64
	bufOut   [][]float64
	own      [][]float64
	retained bool
	live     []source
	block    Block
}

// New adds a new node with provided processor and number of channels.
// Node starts in active state with no connections.
func (c *Context) New(p Processor, ins, outs int, options ...NodeOption) Node {
	if ins < 0 {
		ins = 0
	}
	if outs < 0 {
		outs = 0
	}
	e := &entry{
		id:       xid.New(),
		proc:     p,
		ins:      ins,
		outs:     outs,
		inputs:   make([][]port, ins),
		noInputs: true,
		lastStep: -1,
		bufIn:    make([][]float64, ins),
		bufOut:   make([][]float64, outs),
	}
	for _, option := range options {
		option(e)
	}
	zero := c.pool.Zero()
	for i := range e.bufIn {
		e.bufIn[i] = zero
	}
	for i := range e.bufOut {
		e.bufOut[i] = zero
	}
	if e.initPolicy == InitRetain {
		e.own = signal.EmptyFloat64(outs, c.bufferSize)
		copy(e.bufOut, e.own)
	}
	n := Node{ctx: c, h: c.nodes.add(e)}
	e.block.node = n
	c.meter.NodeAdded()
	return n
}

// Node is a handle of the processing node in the context graph. Zero
// value refers to no node and behaves as a deleted one.
type Node struct {
	ctx *Context
	h   handle
}

func (n Node) entry() *entry {
	if n.ctx == nil {
		return nil
	}
	return n.ctx.nodes.get(n.h)
}

// Context returns the context of the node.
func (n Node) Context() *Context {
	return n.ctx
}

// Ins returns number of inputs. Zero is returned for deleted node.
func (n Node) Ins() int {
	if e := n.entry(); e != nil {
		return e.ins
	}
	return 0
}

// Outs returns number of outputs. Zero is returned for deleted node.
func (n Node) Outs() int {
	if e := n.entry(); e != nil {
		return e.outs
	}
	return 0
}

// Processor returns the processor of the node.
func (n Node) Processor() Processor {
	if e := n.entry(); e != nil {
		return e.proc
	}
	return nil
}

// InitPolicy returns output init policy of the node.
func (n Node) InitPolicy() InitPolicy {
	if e := n.entry(); e != nil {
		return e.initPolicy
	}
	return InitJunk
}

// PausePolicy returns output pause policy of the node.
func (n Node) PausePolicy() PausePolicy {
	if e := n.entry(); e != nil {
		return e.pausePolicy
	}
	return PauseZero
}

// Output returns output buffer of the channel. It's nil for nodes with
// InitNull policy. Must be called from the audio goroutine.
func (n Node) Output(channel int) []float64 {
	e := n.entry()
	if e == nil || channel < 0 || channel >= e.outs {
		return nil
	}
	return e.bufOut[channel]
}

// Outputs returns output buffers of the node resolved for reading. Nil
// outputs are rendered with the node's Valuer. Must be called from the
// audio goroutine.
func (n Node) Outputs() signal.Float64 {
	e := n.entry()
	if e == nil {
		return nil
	}
	outs := make([][]float64, e.outs)
	for i := range outs {
		outs[i] = e.output(i, n.ctx.pool)
	}
	return outs
}

// Inputs returns input buffers resolved during last update. Must be
// called from the audio goroutine.
func (n Node) Inputs() signal.Float64 {
	e := n.entry()
	if e == nil {
		return nil
	}
	return append(signal.Float64(nil), e.bufIn...)
}

// Value returns a single sample of the output.
func (n Node) Value(channel, i int) float64 {
	e := n.entry()
	if e == nil || channel < 0 || channel >= e.outs {
		return 0
	}
	return e.value(channel, i)
}

// SetTimerMode enables measurement of update duration.
func (n Node) SetTimerMode(enabled bool) {
	if e := n.entry(); e != nil {
		e.timer.Store(enabled)
	}
}

// LastUpdateDuration returns time spent in the last update if timer mode
// is enabled.
func (n Node) LastUpdateDuration() time.Duration {
	if e := n.entry(); e != nil {
		return time.Duration(e.lastTime.Load())
	}
	return 0
}

// String returns node name and id.
func (n Node) String() string {
	e := n.entry()
	if e == nil {
		return "deleted node"
	}
	if e.name == "" {
		return e.id.String()
	}
	return fmt.Sprintf("%s %s", e.name, e.id)
}

// output returns buffer of the channel, materializing nil outputs.
func (e *entry) output(channel int, p *pool.Pool) []float64 {
	if channel >= len(e.bufOut) {
		return p.Zero()
	}
	if b := e.bufOut[channel]; b != nil {
		return b
	}
	v, ok := e.proc.(Valuer)
	if !ok {
		return p.Zero()
	}
	b := p.Junk()
	for i := range b {
		b[i] = v.Value(channel, i)
	}
	return b
}

// accumulate adds output of the channel to dst.
func (e *entry) accumulate(channel int, dst []float64) {
	if channel >= len(e.bufOut) {
		return
	}
	if b := e.bufOut[channel]; b != nil {
		signal.Accumulate(dst, b)
		return
	}
	if v, ok := e.proc.(Valuer); ok {
		for i := range dst {
			dst[i] += v.Value(channel, i)
		}
	}
}

func (e *entry) value(channel, i int) float64 {
	if b := e.bufOut[channel]; b != nil {
		if i < 0 || i >= len(b) {
			return 0
		}
		return b[i]
	}
	if v, ok := e.proc.(Valuer); ok {
		return v.Value(channel, i)
	}
	return 0
}
