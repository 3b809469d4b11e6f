package wav_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/ugen/mock"
	"github.com/dudk/ugen/signal"
	"github.com/dudk/ugen/test"
	"github.com/dudk/ugen/ugens"
	"github.com/dudk/ugen/wav"
)

func TestSink(t *testing.T) {
	tests := []struct {
		bitDepth signal.BitDepth
		delta    float64
	}{
		{bitDepth: signal.BitDepth16, delta: 1e-4},
		{bitDepth: signal.BitDepth24, delta: 1e-6},
		{bitDepth: signal.BitDepth32, delta: 1e-8},
	}
	for _, c := range tests {
		path := test.Path(t, "out.wav")
		ctx := test.Context(t)
		require.NoError(t, ctx.Out.ConnectAll(ctx.New(&mock.Constant{Value: 0.5}, 0, 1)))

		sink, err := wav.NewSink(path, test.SampleRate, test.Channels, c.bitDepth)
		require.NoError(t, err)
		require.NoError(t, ctx.Render(10, sink))
		require.NoError(t, sink.Close())

		s, err := wav.Load(path)
		require.NoError(t, err)
		assert.Equal(t, test.Channels, s.NumChannels())
		assert.Equal(t, 10*test.BufferSize, s.Frames())
		assert.Equal(t, float64(test.SampleRate), s.SampleRate())
		assert.InDeltaSlice(t, test.Constant(10*test.BufferSize, 0.5), s.Data()[0], c.delta)
	}
}

func TestPlayback(t *testing.T) {
	path := test.Path(t, "in.wav")
	sink, err := wav.NewSink(path, test.SampleRate, 2, signal.BitDepth16)
	require.NoError(t, err)
	require.NoError(t, sink.Write([][]float64{{0, 0.25, 0.5, 0.75}, {0, -0.25, -0.5, -0.75}}))
	require.NoError(t, sink.Close())

	s, err := wav.Load(path)
	require.NoError(t, err)
	ctx := test.Context(t)
	player := ugens.NewSamplePlayer(s)
	n := player.Node(ctx)
	assert.Equal(t, 2, n.Outs())
	// right channel is dropped by mono root.
	require.NoError(t, ctx.Out.ConnectAll(n))
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75}, ctx.Output()[0], 1e-4)
}

func TestErrors(t *testing.T) {
	_, err := wav.NewSink(test.Path(t, "out.wav"), test.SampleRate, 1, signal.BitDepth8)
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)

	_, err = wav.Load(test.Path(t, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := test.Path(t, "invalid.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o600))
	_, err = wav.Load(path)
	assert.ErrorIs(t, err, wav.ErrInvalidFile)
}
