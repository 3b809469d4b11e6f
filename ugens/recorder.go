package ugens

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dudk/ugen"
)

// Recorder writes its inputs to the sink every block. It has no outputs:
// add it as a dependent of the node it should follow. Sink is closed after
// recorder node is killed if it implements io.Closer. Close happens on the
// audio goroutine, so no block is written to the closed sink.
type Recorder struct {
	channels int
	sink     ugen.Sink

	mu  sync.Mutex
	err error
}

// NewRecorder returns recorder with provided number of channels.
func NewRecorder(channels int, sink ugen.Sink) *Recorder {
	return &Recorder{
		channels: channels,
		sink:     sink,
	}
}

// Node adds recorder to the context.
func (r *Recorder) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(r, r.channels, 0, options...)
}

// Process implements ugen.Processor. Sink error pauses the node.
func (r *Recorder) Process(b *ugen.Block) {
	if err := r.sink.Write(b.In); err != nil {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
		b.Context().Logger().WithFields(logrus.Fields{
			"node": b.Node().String(),
			"step": b.Context().Step(),
		}).WithError(err).Error("recorder failed")
		b.Node().Pause(true)
	}
}

// Err returns the first sink error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close implements io.Closer.
func (r *Recorder) Close() error {
	if c, ok := r.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
