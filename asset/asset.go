// Package asset bounces rendered blocks into in-memory samples.
package asset

import (
	"sync"

	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/signal"
)

// Asset is a sink which uses a regular buffer as underlying storage. Its
// content can be played back as a sample.
type Asset struct {
	sampleRate float64

	mu     sync.Mutex
	buffer signal.Float64
}

// New returns empty asset with sample rate of rendered blocks.
func New(sampleRate float64) *Asset {
	return &Asset{sampleRate: sampleRate}
}

// Write implements ugen.Sink. Block is copied.
func (a *Asset) Write(block [][]float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffer = a.buffer.Append(block)
	return nil
}

// Frames returns number of frames written so far.
func (a *Asset) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buffer.Size()
}

// Sample returns a copy of written signal as a sample.
func (a *Asset) Sample() *sample.Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sample.New(a.buffer.Copy(), a.sampleRate)
}
