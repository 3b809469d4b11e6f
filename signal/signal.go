// Package signal provides helpers to manipulate blocks of samples. It allows to:
// 	- convert non-interleaved float blocks to interleaved ints and back
//	- convert between milliseconds, samples and durations for a sample rate
//	- accumulate and clamp channel data in place
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// divider is used when int to float conversion is done.
func (bitDepth BitDepth) divider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// Supported returns true if bit depth can be encoded to PCM.
func (bitDepth BitDepth) Supported() bool {
	switch bitDepth {
	case BitDepth8, BitDepth16, BitDepth24, BitDepth32:
		return true
	}
	return false
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// MsToSamples converts milliseconds to a fractional number of samples.
func MsToSamples(sampleRate, ms float64) float64 {
	return ms * sampleRate / 1000
}

// SamplesToMs converts a number of samples to milliseconds.
func SamplesToMs(sampleRate, samples float64) float64 {
	return samples / sampleRate * 1000
}

// AsFloat64 converts interleaved int signal to float64.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	floats := make([][]float64, ints.NumChannels)
	bufSize := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))

	divider := float64(ints.BitDepth.divider())

	for i := range floats {
		floats[i] = make([]float64, bufSize)
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float64(ints.Data[j]) / divider
			pos++
		}
	}
	return floats
}

// AsInterInt converts float64 signal to interleaved int. Values are
// clipped to [-1, 1] before conversion.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	var numChannels int
	if numChannels = len(floats); numChannels == 0 {
		return nil
	}

	multiplier := float64(bitDepth.multiplier())

	size := floats.Size()
	ints := make([]int, size*numChannels)
	for j := range floats {
		for i := range floats[j] {
			if i >= size {
				break
			}
			ints[i*numChannels+j] = int(Clamp(floats[j][i]) * multiplier)
		}
	}
	return ints
}

// AsInterFloat32 writes float64 signal into interleaved float32 buffer.
// The number of written frames is returned.
func (floats Float64) AsInterFloat32(out []float32) int {
	numChannels := floats.NumChannels()
	if numChannels == 0 {
		return 0
	}
	frames := floats.Size()
	if limit := len(out) / numChannels; frames > limit {
		frames = limit
	}
	for j := range floats {
		for i := 0; i < frames; i++ {
			out[i*numChannels+j] = float32(floats[j][i])
		}
	}
	return frames
}

// EmptyFloat64 returns an empty buffer of specified dimensions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Append buffers set to existing one one
// new buffer is returned if b is nil
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

// Copy returns a deep copy of the signal.
func (floats Float64) Copy() Float64 {
	if floats == nil {
		return nil
	}
	result := make([][]float64, len(floats))
	for i := range floats {
		if floats[i] != nil {
			result[i] = append(make([]float64, 0, len(floats[i])), floats[i]...)
		}
	}
	return result
}

// Accumulate adds every sample of src to dst.
func Accumulate(dst, src []float64) {
	for i := range dst {
		if i >= len(src) {
			return
		}
		dst[i] += src[i]
	}
}

// Fill sets every sample of dst to v.
func Fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

// Clamp limits v to [-1, 1].
func Clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
