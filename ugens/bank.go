package ugens

import (
	"fmt"
	"math"

	"github.com/dudk/ugen"
)

// OscillatorBank sums oscillators of the same waveform. Every oscillator
// has its own frequency and gain, the sum is scaled by one over number of
// oscillators.
type OscillatorBank struct {
	table     Wavetable
	frequency []*ugen.Control
	gain      []*ugen.Control
	phase     []float64
	master    float64
}

// NewOscillatorBank returns bank of n oscillators of the shape. Oscillators
// start at zero frequency and unit gain.
func NewOscillatorBank(s Shape, n int) *OscillatorBank {
	if n < 0 {
		n = 0
	}
	b := &OscillatorBank{
		table:     NewWavetable(s, DefaultTableSize),
		frequency: make([]*ugen.Control, n),
		gain:      make([]*ugen.Control, n),
		phase:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		b.frequency[i] = ugen.NewControl(0)
		b.gain[i] = ugen.NewControl(1)
	}
	if n > 0 {
		b.master = 1 / float64(n)
	}
	return b
}

// Node adds bank to the context.
func (b *OscillatorBank) Node(ctx *ugen.Context, options ...ugen.NodeOption) ugen.Node {
	return ctx.New(b, 0, 1, options...)
}

// Len returns number of oscillators.
func (b *OscillatorBank) Len() int {
	return len(b.phase)
}

// Frequency returns frequency control of oscillator i.
func (b *OscillatorBank) Frequency(i int) *ugen.Control {
	return b.frequency[i]
}

// Gain returns gain control of oscillator i.
func (b *OscillatorBank) Gain(i int) *ugen.Control {
	return b.gain[i]
}

// SetFrequencies sets static frequencies in order. Oscillators without
// value are set to zero frequency.
func (b *OscillatorBank) SetFrequencies(frequencies ...float64) {
	for i, c := range b.frequency {
		v := 0.0
		if i < len(frequencies) {
			v = math.Abs(frequencies[i])
		}
		c.Set(v)
	}
}

// SetGains sets static gains in order. Oscillators without value are
// muted.
func (b *OscillatorBank) SetGains(gains ...float64) {
	for i, c := range b.gain {
		v := 0.0
		if i < len(gains) {
			v = gains[i]
		}
		c.Set(v)
	}
}

// Frequencies returns static frequencies.
func (b *OscillatorBank) Frequencies() []float64 {
	return values(b.frequency)
}

// Gains returns static gains.
func (b *OscillatorBank) Gains() []float64 {
	return values(b.gain)
}

func values(controls []*ugen.Control) []float64 {
	v := make([]float64, len(controls))
	for i, c := range controls {
		v[i] = c.Value()
	}
	return v
}

// Controls implements ugen.Controller. Controls are named by index:
// frequency0, gain0, frequency1 and so on.
func (b *OscillatorBank) Controls() map[string]*ugen.Control {
	m := make(map[string]*ugen.Control, 2*len(b.phase))
	for i := range b.phase {
		m[fmt.Sprintf("frequency%d", i)] = b.frequency[i]
		m[fmt.Sprintf("gain%d", i)] = b.gain[i]
	}
	return m
}

// Process implements ugen.Processor.
func (b *OscillatorBank) Process(block *ugen.Block) {
	for i := range b.phase {
		b.frequency[i].Pull(block)
		b.gain[i].Pull(block)
	}
	sr := block.Context().SampleRate()
	out := block.Out[0]
	for i := range out {
		var sum float64
		for j, p := range b.phase {
			sum += b.gain[j].At(i) * b.table.At(p)
			b.phase[j] = wrap(p + math.Abs(b.frequency[j].At(i))/sr)
		}
		out[i] = sum * b.master
	}
}
