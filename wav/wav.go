// Package wav loads wav files into samples and writes rendered blocks to
// wav files.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/signal"
)

// PCM is the wav audio format supported by the sink.
const PCM = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when wav file can't be decoded.
	ErrInvalidFile = errors.New("wav is not valid")
)

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load decodes wav file into sample.
func Load(path string) (*sample.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads the whole wav stream into sample.
func Decode(r io.ReadSeeker) (*sample.Sample, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	data := signal.InterInt{
		Data:        buf.Data,
		NumChannels: int(decoder.NumChans),
		BitDepth:    bitDepth,
	}.AsFloat64()
	return sample.New(data, float64(decoder.SampleRate)), nil
}

// Sink saves rendered blocks to wav file. Close must be called to write
// the header.
type Sink struct {
	file     *os.File
	encoder  *wav.Encoder
	bitDepth signal.BitDepth
	ib       *audio.IntBuffer
}

// NewSink creates wav file at path.
func NewSink(path string, sampleRate, channels int, bitDepth signal.BitDepth) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, int(bitDepth), channels, PCM),
		bitDepth: bitDepth,
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write implements ugen.Sink.
func (s *Sink) Write(block [][]float64) error {
	s.ib.Data = signal.Float64(block).AsInterInt(s.bitDepth)
	return s.encoder.Write(s.ib)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
