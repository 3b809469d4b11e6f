// Package sample provides decoded audio kept in memory and random access
// to its frames with interpolation.
package sample

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dudk/ugen/signal"
)

// Interpolation defines how values between frames are computed.
type Interpolation int

const (
	// None takes the nearest previous frame.
	None Interpolation = iota
	// Linear interpolates between two neighbour frames.
	Linear
	// Cubic interpolates with four neighbour frames.
	Cubic
)

// ErrUnknownInterpolation is returned when interpolation can't be parsed.
var ErrUnknownInterpolation = errors.New("unknown interpolation")

func (i Interpolation) String() string {
	switch i {
	case None:
		return "none"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	}
	return "unknown"
}

// ParseInterpolation returns interpolation by its name.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	}
	return None, fmt.Errorf("%q: %w", s, ErrUnknownInterpolation)
}

// Sample is an immutable multi-channel signal with its sample rate.
type Sample struct {
	data       signal.Float64
	sampleRate float64
}

// New returns sample of provided signal. Signal must not be modified
// afterwards.
func New(data signal.Float64, sampleRate float64) *Sample {
	return &Sample{
		data:       data,
		sampleRate: sampleRate,
	}
}

// NumChannels returns number of channels.
func (s *Sample) NumChannels() int {
	return s.data.NumChannels()
}

// Frames returns number of frames.
func (s *Sample) Frames() int {
	return s.data.Size()
}

// SampleRate returns sample rate of the sample.
func (s *Sample) SampleRate() float64 {
	return s.sampleRate
}

// Duration returns duration of the sample.
func (s *Sample) Duration() time.Duration {
	return signal.DurationOf(s.sampleRate, int64(s.Frames()))
}

// Data returns underlying signal. It must be treated as read-only.
func (s *Sample) Data() signal.Float64 {
	return s.data
}

// Frame writes values of every channel at fractional frame position to
// frame. Channels are cycled if frame is longer than number of channels.
// Positions outside of the sample produce silence.
func (s *Sample) Frame(pos float64, mode Interpolation, frame []float64) {
	channels := s.NumChannels()
	for i := range frame {
		if channels == 0 {
			frame[i] = 0
			continue
		}
		frame[i] = s.Value(i%channels, pos, mode)
	}
}

// Value returns value of the channel at fractional frame position.
func (s *Sample) Value(channel int, pos float64, mode Interpolation) float64 {
	frames := s.Frames()
	if channel < 0 || channel >= s.NumChannels() || pos < 0 || pos >= float64(frames) || math.IsNaN(pos) {
		return 0
	}
	data := s.data[channel]
	i := int(pos)
	switch mode {
	case Linear:
		mu := pos - float64(i)
		return data[i]*(1-mu) + s.at(data, i+1)*mu
	case Cubic:
		mu := pos - float64(i)
		y0, y1, y2, y3 := s.at(data, i-1), data[i], s.at(data, i+1), s.at(data, i+2)
		a0 := y3 - y2 - y0 + y1
		a1 := y0 - y1 - a0
		a2 := y2 - y0
		return a0*mu*mu*mu + a1*mu*mu + a2*mu + y1
	default:
		return data[i]
	}
}

// at returns value at index clamped to sample bounds.
func (s *Sample) at(data []float64, i int) float64 {
	switch {
	case i < 0:
		return data[0]
	case i >= len(data):
		return data[len(data)-1]
	}
	return data[i]
}

// MsToFrames converts milliseconds to frames at sample rate of the sample.
func (s *Sample) MsToFrames(ms float64) float64 {
	return signal.MsToSamples(s.sampleRate, ms)
}
