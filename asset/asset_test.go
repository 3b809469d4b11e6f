package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/asset"
	"github.com/dudk/ugen/mock"
	"github.com/dudk/ugen/test"
	"github.com/dudk/ugen/ugens"
)

var tests = []struct {
	channels int
	blocks   int
	value    float64
	samples  int
}{
	{
		channels: 1,
		blocks:   10,
		value:    0.5,
		samples:  40,
	},
	{
		channels: 2,
		blocks:   100,
		value:    0.7,
		samples:  400,
	},
}

func TestAsset(t *testing.T) {
	for _, c := range tests {
		ctx := test.Context(t, ugen.WithChannels(c.channels))
		require.NoError(t, ctx.Out.ConnectAll(ctx.New(&mock.Constant{Value: c.value}, 0, 1)))

		a := asset.New(ctx.SampleRate())
		require.NoError(t, ctx.Render(c.blocks, a))
		assert.Equal(t, c.samples, a.Frames())

		s := a.Sample()
		assert.Equal(t, c.channels, s.NumChannels())
		assert.Equal(t, c.samples, s.Frames())
		assert.Equal(t, ctx.SampleRate(), s.SampleRate())
		for _, ch := range s.Data() {
			assert.Equal(t, test.Constant(c.samples, c.value), ch)
		}
	}
}

func TestBounce(t *testing.T) {
	ctx := test.Context(t)
	env := ugens.NewEnvelope(0)
	env.AddSegment(1, 4, nil)
	en := env.Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(en))
	a := asset.New(ctx.SampleRate())
	require.NoError(t, ctx.Render(1, a))
	en.Kill()

	// bounced ramp is played back by a sample player.
	player := ugens.NewSamplePlayer(a.Sample()).Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(player))
	ctx.Tick()
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, ctx.Output()[0])
}
