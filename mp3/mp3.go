// Package mp3 loads mp3 files into samples and encodes rendered blocks
// to mp3 files.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/signal"
)

// decoded stream is always 16 bit stereo.
const (
	channels       = 2
	bytesPerSample = 2
)

// Load decodes mp3 file into sample.
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

// Decode reads the whole mp3 stream into stereo sample.
func Decode(r io.Reader) (*sample.Sample, error) {
	d, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(raw)/bytesPerSample)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(raw[i*bytesPerSample:])))
	}
	data := signal.InterInt{
		Data:        ints,
		NumChannels: channels,
		BitDepth:    signal.BitDepth16,
	}.AsFloat64()
	return sample.New(data, float64(d.SampleRate())), nil
}
