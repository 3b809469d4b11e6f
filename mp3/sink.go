package mp3

import (
	"encoding/binary"
	"os"

	"github.com/viert/lame"

	"github.com/dudk/ugen/signal"
)

// Sink encodes rendered blocks into mp3 file.
type Sink struct {
	f   *os.File
	wr  *lame.LameWriter
	buf []byte
}

// NewSink creates mp3 file at path. Quality is lame encoder quality,
// 0 is the best and 9 is the worst.
func NewSink(path string, sampleRate, numChannels, bitRate, quality int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(bitRate)
	wr.Encoder.SetQuality(quality)
	wr.Encoder.SetNumChannels(numChannels)
	wr.Encoder.SetInSamplerate(sampleRate)
	if numChannels == 1 {
		wr.Encoder.SetMode(lame.MONO)
	} else {
		wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()
	return &Sink{
		f:  f,
		wr: wr,
	}, nil
}

// Write implements ugen.Sink.
func (s *Sink) Write(block [][]float64) error {
	ints := signal.Float64(block).AsInterInt(signal.BitDepth16)
	if n := len(ints) * bytesPerSample; cap(s.buf) < n {
		s.buf = make([]byte, n)
	} else {
		s.buf = s.buf[:n]
	}
	for i, v := range ints {
		binary.LittleEndian.PutUint16(s.buf[i*bytesPerSample:], uint16(int16(v)))
	}
	_, err := s.wr.Write(s.buf)
	return err
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.wr.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
