package ugens

import (
	"math"
	"sync"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/sample"
)

// WavePlayer is an oscillator of a single waveform. Waveform is computed
// exactly for every sample, sine is the default.
type WavePlayer struct {
	frequency *ugen.Control
	shape     Shape
	phase     float64
}

// WaveOption sets parameters of the wave player.
type WaveOption func(*WavePlayer)

// WithShape sets waveform of the oscillator.
func WithShape(s Shape) WaveOption {
	return func(w *WavePlayer) {
		w.shape = s
	}
}

// NewWavePlayer returns oscillator with provided frequency in Hz.
func NewWavePlayer(frequency float64, options ...WaveOption) *WavePlayer {
	w := &WavePlayer{frequency: ugen.NewControl(frequency)}
	for _, option := range options {
		option(w)
	}
	return w
}

// Node adds oscillator to the context.
func (w *WavePlayer) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(w, 0, 1, options...)
}

// Frequency returns frequency control.
func (w *WavePlayer) Frequency() *ugen.Control {
	return w.frequency
}

// Shape returns waveform of the oscillator.
func (w *WavePlayer) Shape() Shape {
	return w.shape
}

// Controls implements ugen.Controller.
func (w *WavePlayer) Controls() map[string]*ugen.Control {
	return map[string]*ugen.Control{"frequency": w.frequency}
}

// Process implements ugen.Processor. Phase is kept in cycles.
func (w *WavePlayer) Process(b *ugen.Block) {
	w.frequency.Pull(b)
	sr := b.Context().SampleRate()
	out := b.Out[0]
	for i := range out {
		out[i] = w.shape.At(w.phase)
		w.phase = wrap(w.phase + w.frequency.At(i)/sr)
	}
}

// SamplePlayer plays a sample. Playback rate is relative to the original
// speed of the sample, negative rate plays backwards.
type SamplePlayer struct {
	sample *sample.Sample
	rate   *ugen.Control

	mu            sync.Mutex
	position      float64
	interpolation sample.Interpolation
	loop          bool
	killOnEnd     bool
	onEnd         ugen.Listener
	done          bool

	frame []float64
}

// NewSamplePlayer returns player of the sample. Node is killed when
// playback reaches the end unless loop is enabled.
func NewSamplePlayer(s *sample.Sample) *SamplePlayer {
	return &SamplePlayer{
		sample:    s,
		rate:      ugen.NewControl(1),
		killOnEnd: true,
	}
}

// Node adds player to the context. Number of outputs matches number of
// sample channels.
func (p *SamplePlayer) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	p.frame = make([]float64, p.sample.NumChannels())
	return ctx.New(p, 0, p.sample.NumChannels(), options...)
}

// Rate returns playback rate control.
func (p *SamplePlayer) Rate() *ugen.Control {
	return p.rate
}

// Controls implements ugen.Controller.
func (p *SamplePlayer) Controls() map[string]*ugen.Control {
	return map[string]*ugen.Control{"rate": p.rate}
}

// SetInterpolation sets interpolation of fractional positions.
func (p *SamplePlayer) SetInterpolation(i sample.Interpolation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interpolation = i
}

// SetLoop enables looping over the whole sample.
func (p *SamplePlayer) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

// SetKillOnEnd defines if node is killed when playback ends.
func (p *SamplePlayer) SetKillOnEnd(kill bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killOnEnd = kill
}

// OnEnd sets listener notified when playback ends.
func (p *SamplePlayer) OnEnd(l ugen.Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnd = l
}

// SetPosition moves playback to position in milliseconds.
func (p *SamplePlayer) SetPosition(ms float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = p.sample.MsToFrames(ms)
	p.done = false
}

// Position returns playback position in milliseconds.
func (p *SamplePlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position / p.sample.SampleRate() * 1000
}

// Process implements ugen.Processor.
func (p *SamplePlayer) Process(b *ugen.Block) {
	p.rate.Pull(b)
	p.mu.Lock()
	frames := float64(p.sample.Frames())
	ratio := p.sample.SampleRate() / b.Context().SampleRate()
	var ended bool
	for i := 0; i < b.Size(); i++ {
		if p.done {
			for _, out := range b.Out {
				out[i] = 0
			}
			continue
		}
		p.sample.Frame(p.position, p.interpolation, p.frame)
		for j, out := range b.Out {
			out[i] = p.frame[j]
		}
		p.position += p.rate.At(i) * ratio
		if p.position >= 0 && p.position < frames {
			continue
		}
		if p.loop && frames > 0 {
			p.position = math.Mod(p.position, frames)
			if p.position < 0 {
				p.position += frames
			}
			continue
		}
		p.done, ended = true, true
	}
	onEnd, kill := p.onEnd, p.killOnEnd
	p.mu.Unlock()

	if ended {
		b.Node().Send(onEnd)
		if kill {
			b.Node().Kill()
		}
	}
}
