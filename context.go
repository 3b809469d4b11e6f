package ugen

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/dudk/ugen/log"
	"github.com/dudk/ugen/metric"
	"github.com/dudk/ugen/mutable"
	"github.com/dudk/ugen/pool"
	"github.com/dudk/ugen/signal"
)

const (
	defaultBufferSize  = 512
	defaultSampleRate  = 44100
	defaultChannels    = 2
	defaultPoolReserve = 64
	queueSize          = 64
)

// Sink consumes blocks rendered by the context. Block buffers are owned
// by the context and must not be modified or retained after Write returns.
type Sink interface {
	Write(block [][]float64) error
}

// SinkFunc allows to use ordinary functions as sinks.
type SinkFunc func(block [][]float64) error

// Write calls fn(block).
func (fn SinkFunc) Write(block [][]float64) error {
	return fn(block)
}

// Context owns the clock, the buffer pool and the nodes of a single graph.
// The graph is computed by pulling the Out node once per time step.
type Context struct {
	mutable.Context
	id         xid.ID
	bufferSize int
	sampleRate float64
	channels   int
	reserve    int

	step  atomic.Int64
	pool  *pool.Pool
	nodes arena
	queue *mutable.Queue
	log   logrus.FieldLogger
	meter *metric.Meter

	closeMu sync.Mutex
	closers []pendingClose

	// Out is the root node. Its outputs are the rendered block.
	Out Node
}

// pendingClose is a processor of killed node waiting to be closed.
type pendingClose struct {
	node   string
	closer io.Closer
}

// Option provides a way to set parameters of the context.
type Option func(*Context)

// WithBufferSize sets number of samples in a block.
func WithBufferSize(size int) Option {
	return func(c *Context) {
		c.bufferSize = size
	}
}

// WithSampleRate sets sample rate.
func WithSampleRate(rate float64) Option {
	return func(c *Context) {
		c.sampleRate = rate
	}
}

// WithChannels sets number of output channels.
func WithChannels(n int) Option {
	return func(c *Context) {
		c.channels = n
	}
}

// WithPoolReserve sets number of buffers preallocated per pool generation.
func WithPoolReserve(n int) Option {
	return func(c *Context) {
		c.reserve = n
	}
}

// WithLogger sets context logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// WithMetrics sets context meter.
func WithMetrics(m *metric.Meter) Option {
	return func(c *Context) {
		c.meter = m
	}
}

// New creates a context with provided options.
func New(options ...Option) (*Context, error) {
	c := &Context{
		Context:    mutable.Mutable(),
		id:         xid.New(),
		bufferSize: defaultBufferSize,
		sampleRate: defaultSampleRate,
		channels:   defaultChannels,
		reserve:    defaultPoolReserve,
		queue:      mutable.NewQueue(queueSize),
	}
	for _, option := range options {
		option(c)
	}
	switch {
	case c.bufferSize <= 0:
		return nil, ErrInvalidBufferSize
	case c.sampleRate <= 0:
		return nil, ErrInvalidSampleRate
	case c.channels <= 0:
		return nil, ErrInvalidChannels
	}
	if c.reserve < 0 {
		c.reserve = 0
	}
	if c.log == nil {
		c.log = log.GetLogger()
	}
	c.log = c.log.WithField("context", c.id.String())
	if c.meter == nil {
		c.meter = metric.New()
	}
	c.pool = pool.New(c.bufferSize, c.reserve, pool.WithGrowHook(c.poolGrown))
	c.meter.PoolSize(c.pool.Len())
	c.Out = c.New(ProcessorFunc(passThrough), c.channels, c.channels, WithInit(InitNull), WithName("out"))
	c.log.WithFields(logrus.Fields{
		"buffer_size": c.bufferSize,
		"sample_rate": c.sampleRate,
		"channels":    c.channels,
	}).Debug("context created")
	return c, nil
}

// passThrough aliases inputs as outputs.
func passThrough(b *Block) {
	copy(b.Out, b.In)
}

func (c *Context) poolGrown(total int) {
	c.meter.PoolGrown(total)
	c.log.WithField("buffers", total).Debug("pool grown")
}

// BufferSize returns number of samples in a block.
func (c *Context) BufferSize() int {
	return c.bufferSize
}

// SampleRate returns sample rate of the context.
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// Channels returns number of output channels.
func (c *Context) Channels() int {
	return c.channels
}

// Pool returns buffer pool of the context. Buffers must be acquired on the
// audio goroutine only.
func (c *Context) Pool() *pool.Pool {
	return c.pool
}

// Logger returns context logger.
func (c *Context) Logger() logrus.FieldLogger {
	return c.log
}

// Meter returns context meter.
func (c *Context) Meter() *metric.Meter {
	return c.meter
}

// Len returns number of live nodes, root included.
func (c *Context) Len() int {
	return c.nodes.count()
}

// Step returns current time step.
func (c *Context) Step() int64 {
	return c.step.Load()
}

// Time returns duration of rendered signal.
func (c *Context) Time() time.Duration {
	return signal.DurationOf(c.sampleRate, c.step.Load()*int64(c.bufferSize))
}

// MsToSamples converts milliseconds to samples at context sample rate.
func (c *Context) MsToSamples(ms float64) float64 {
	return signal.MsToSamples(c.sampleRate, ms)
}

// SamplesToMs converts samples to milliseconds at context sample rate.
func (c *Context) SamplesToMs(samples float64) float64 {
	return signal.SamplesToMs(c.sampleRate, samples)
}

// Advance increments time step and recycles buffers of the step before
// the previous one. It must be called once per block before the pull.
func (c *Context) Advance() {
	c.step.Add(1)
	c.pool.Advance()
}

// Update pulls the node within current time step.
func (c *Context) Update(n Node) {
	if n.ctx != c {
		return
	}
	if e := n.entry(); e != nil {
		e.update(c)
	}
}

// Tick applies pending mutations, advances the clock and computes the
// next block. Processors of killed nodes are closed after the pull.
func (c *Context) Tick() {
	start := time.Now()
	c.queue.Apply()
	c.Advance()
	c.Update(c.Out)
	c.Flush()
	c.meter.Block(time.Since(start))
}

// Flush closes processors of killed nodes. Tick and Run call it on the
// audio goroutine, call it directly only when context is not running.
func (c *Context) Flush() {
	c.closeMu.Lock()
	pending := c.closers
	c.closers = nil
	c.closeMu.Unlock()
	for _, p := range pending {
		if err := p.closer.Close(); err != nil {
			c.log.WithError(err).WithField("node", p.node).Warn("close failed")
		}
	}
}

func (c *Context) closeLater(node string, closer io.Closer) {
	c.closeMu.Lock()
	c.closers = append(c.closers, pendingClose{node: node, closer: closer})
	c.closeMu.Unlock()
}

// Output returns the last computed block. Must be called from the audio
// goroutine.
func (c *Context) Output() signal.Float64 {
	return c.Out.Outputs()
}

// Render computes n blocks and writes them to the sink.
func (c *Context) Render(n int, sink Sink) error {
	for i := 0; i < n; i++ {
		if err := c.write(sink); err != nil {
			return err
		}
	}
	return nil
}

// Run computes blocks and writes them to the sink until context is done
// or sink fails. Cancellation is not an error.
func (c *Context) Run(ctx context.Context, sink Sink) error {
	c.log.Debug("context started")
	defer c.log.Debug("context stopped")
	defer c.Flush()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := c.write(sink); err != nil {
			c.log.WithError(err).Error("run stopped")
			return err
		}
	}
}

// Start runs the context in its own goroutine. Sink error is sent to the
// returned channel. Channel is closed when run is done.
func (c *Context) Start(ctx context.Context, sink Sink) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := c.Run(ctx, sink); err != nil {
			errc <- err
		}
	}()
	return errc
}

func (c *Context) write(sink Sink) error {
	c.Tick()
	if err := sink.Write(c.Output()); err != nil {
		return &ErrorSink{Step: c.Step(), Err: err}
	}
	return nil
}

// Push schedules functions to be called on the audio goroutine before
// the next block. It blocks if too many batches are pending until ctx is
// done.
func (c *Context) Push(ctx context.Context, fns ...func()) error {
	mutations := make([]mutable.Mutation, 0, len(fns))
	for _, fn := range fns {
		mutations = append(mutations, c.Mutate(fn))
	}
	return c.queue.Push(ctx, mutations...)
}
