//go:build portaudio

package portaudio_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/portaudio"
	"github.com/dudk/ugen/test"
	"github.com/dudk/ugen/ugens"
)

const (
	sampleRate = 44100
	bufferSize = 512
)

func TestSink(t *testing.T) {
	ctx := test.Context(t,
		ugen.WithSampleRate(sampleRate),
		ugen.WithBufferSize(bufferSize),
		ugen.WithChannels(2),
	)
	osc := ugens.NewWavePlayer(440).Node(ctx)
	g := ugens.NewGain(1, 0.2).Node(ctx)
	require.NoError(t, g.ConnectAll(osc))
	require.NoError(t, ctx.Out.ConnectAll(g))

	sink, err := portaudio.NewSink(sampleRate, 2, bufferSize)
	require.NoError(t, err)
	require.NoError(t, ctx.Render(100, sink))
	require.NoError(t, sink.Close())
}
