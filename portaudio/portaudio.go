// Package portaudio plays rendered blocks on the default output device.
package portaudio

import (
	"github.com/gordonklaus/portaudio"

	"github.com/dudk/ugen/signal"
)

// Sink writes blocks to the default portaudio output stream. Write blocks
// until the device consumes the previous buffer, so it paces the render
// loop in real time.
type Sink struct {
	buf    []float32
	stream *portaudio.Stream
}

// NewSink initializes portaudio and starts the default stream.
func NewSink(sampleRate float64, numChannels, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{
		buf: make([]float32, bufferSize*numChannels),
	}
	var err error
	s.stream, err = portaudio.OpenDefaultStream(0, numChannels, sampleRate, bufferSize, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err = s.stream.Start(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

// Write implements ugen.Sink.
func (s *Sink) Write(block [][]float64) error {
	signal.Float64(block).AsInterFloat32(s.buf)
	return s.stream.Write()
}

// Close stops the stream and terminates portaudio.
func (s *Sink) Close() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
