package ugens

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Shape is a waveform of oscillators.
type Shape int

const (
	// Sine wave.
	Sine Shape = iota
	// Triangle wave, rises from zero at the start of the cycle.
	Triangle
	// Saw wave, rises from zero and jumps down in the middle of the cycle.
	Saw
	// Square wave.
	Square
)

// DefaultTableSize is number of points in wavetables of the bank.
const DefaultTableSize = 4096

// ErrUnknownShape is returned when shape can't be parsed.
var ErrUnknownShape = errors.New("unknown shape")

func (s Shape) String() string {
	switch s {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Saw:
		return "saw"
	case Square:
		return "square"
	}
	return "unknown"
}

// ParseShape returns shape by its name. Empty name is a sine.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "sine":
		return Sine, nil
	case "triangle":
		return Triangle, nil
	case "saw":
		return Saw, nil
	case "square":
		return Square, nil
	}
	return Sine, fmt.Errorf("%q: %w", s, ErrUnknownShape)
}

// At returns value of the waveform at phase in [0, 1).
func (s Shape) At(phase float64) float64 {
	switch s {
	case Triangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	case Saw:
		if phase < 0.5 {
			return 2 * phase
		}
		return 2*phase - 2
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	}
	return math.Sin(2 * math.Pi * phase)
}

// Wavetable is a single cycle of a waveform.
type Wavetable []float64

// NewWavetable samples one cycle of the shape into size points.
func NewWavetable(s Shape, size int) Wavetable {
	t := make(Wavetable, size)
	for i := range t {
		t[i] = s.At(float64(i) / float64(size))
	}
	return t
}

// At returns value at phase in [0, 1), interpolated between two
// neighbour points.
func (t Wavetable) At(phase float64) float64 {
	n := len(t)
	if n == 0 {
		return 0
	}
	pos := wrap(phase) * float64(n)
	i := int(pos)
	frac := pos - float64(i)
	i %= n
	return t[i] + (t[(i+1)%n]-t[i])*frac
}

// wrap returns fractional part of the phase in [0, 1).
func wrap(phase float64) float64 {
	return phase - math.Floor(phase)
}
