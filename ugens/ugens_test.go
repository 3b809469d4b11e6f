package ugens_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/mock"
	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/signal"
	"github.com/dudk/ugen/test"
	"github.com/dudk/ugen/ugens"
)

const delta = 1e-9

func TestStatic(t *testing.T) {
	ctx := test.Context(t)
	s := ugens.NewStatic(0.5)
	n := s.Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(n))
	assert.Equal(t, ugen.InitNull, n.InitPolicy())

	ctx.Tick()
	assert.Equal(t, test.Constant(test.BufferSize, 0.5), ctx.Output()[0])
	s.SetValue(-1)
	ctx.Tick()
	assert.Equal(t, test.Constant(test.BufferSize, -1), ctx.Output()[0])
}

func TestEffects(t *testing.T) {
	tests := []struct {
		description string
		node        func(*ugen.Context, ...ugen.NodeOption) ugen.Node
		in          float64
		expected    float64
	}{
		{
			description: "gain",
			node:        ugens.NewGain(1, 0.5).Node,
			in:          0.8,
			expected:    0.4,
		},
		{
			description: "sum",
			node:        ugens.NewSum(1).Node,
			in:          0.8,
			expected:    0.8,
		},
		{
			description: "limiter above",
			node:        ugens.NewRangeLimiter(1).Node,
			in:          1.5,
			expected:    1,
		},
		{
			description: "limiter below",
			node:        ugens.NewRangeLimiter(1).Node,
			in:          -3,
			expected:    -1,
		},
		{
			description: "gain limiter",
			node:        ugens.NewGainLimiter(1, 2).Node,
			in:          0.8,
			expected:    1,
		},
		{
			description: "gain limiter in range",
			node:        ugens.NewGainLimiter(1, 0.5).Node,
			in:          0.8,
			expected:    0.4,
		},
	}
	for _, c := range tests {
		t.Run(c.description, func(t *testing.T) {
			ctx := test.Context(t)
			n := c.node(ctx)
			require.NoError(t, n.ConnectAll(ctx.New(&mock.Constant{Value: c.in}, 0, 1)))
			require.NoError(t, ctx.Out.ConnectAll(n))
			ctx.Tick()
			assert.InDeltaSlice(t, test.Constant(test.BufferSize, c.expected), ctx.Output()[0], delta)
		})
	}
}

func TestSumInputs(t *testing.T) {
	ctx := test.Context(t)
	sum := ugens.NewSum(3).Node(ctx)
	for i, v := range []float64{0.1, 0.2, 0.3} {
		require.NoError(t, sum.Connect(i, ctx.New(&mock.Constant{Value: v}, 0, 1), 0))
	}
	require.NoError(t, ctx.Out.ConnectAll(sum))
	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 0.6), ctx.Output()[0], delta)
}

func TestGainLimiterControl(t *testing.T) {
	ctx := test.Context(t)
	gl := ugens.NewGainLimiter(1, 1)
	n := gl.Node(ctx)
	require.NoError(t, n.ConnectAll(ctx.New(&mock.Constant{Value: 0.6}, 0, 1)))
	require.NoError(t, ctx.Out.ConnectAll(n))
	// root, constant, composite and two inner nodes.
	assert.Equal(t, 5, ctx.Len())

	ctrl, ok := n.Control("gain")
	require.True(t, ok)
	assert.Same(t, gl.Gain(), ctrl)
	ctrl.Set(0.5)
	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 0.3), ctx.Output()[0], delta)

	n.Kill()
	assert.Equal(t, 2, ctx.Len())
}

func TestEnvelope(t *testing.T) {
	ctx := test.Context(t)
	env := ugens.NewEnvelope(0)
	n := env.Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(n))

	var fired []ugen.Node
	record := ugen.ListenerFunc(func(from ugen.Node) {
		fired = append(fired, from)
	})
	// 4 ms is a single block.
	env.AddSegment(1, 4, record)
	env.AddSegment(-1, 0, record)
	env.AddSegment(0, 8, nil)
	assert.Equal(t, 3, env.Len())

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75, 1}, ctx.Output()[0], delta)
	assert.Equal(t, []ugen.Node{n}, fired)

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{-0.875, -0.75, -0.625, -0.5}, ctx.Output()[0], delta)
	assert.Len(t, fired, 2)

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{-0.375, -0.25, -0.125, 0}, ctx.Output()[0], delta)
	assert.Zero(t, env.Len())

	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 0), ctx.Output()[0], delta)

	env.Lock(true)
	env.AddSegment(1, 4, nil)
	env.SetValue(1)
	assert.Zero(t, env.Len())
	assert.Zero(t, env.Value())

	env.Lock(false)
	env.AddSegment(1, 100, nil)
	env.Clear()
	env.SetValue(0.5)
	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 0.5), ctx.Output()[0], delta)
}

func TestEnvelopeControl(t *testing.T) {
	ctx := test.Context(t)
	gain := ugens.NewGain(1, 0)
	g := gain.Node(ctx)
	env := ugens.NewEnvelope(0)
	gain.Gain().Bind(env.Node(ctx))
	env.AddSegment(1, 4, nil)
	require.NoError(t, g.ConnectAll(ctx.New(&mock.Constant{Value: 2}, 0, 1)))
	require.NoError(t, ctx.Out.ConnectAll(g))

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0.5, 1, 1.5, 2}, ctx.Output()[0], delta)
	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 2), ctx.Output()[0], delta)
}

func TestWavePlayer(t *testing.T) {
	ctx := test.Context(t)
	w := ugens.NewWavePlayer(250)
	n := w.Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(n))
	assert.Equal(t, []string{"frequency"}, n.Controls())

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, ctx.Output()[0], 1e-9)

	w.Frequency().Set(0)
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, ctx.Output()[0], 1e-9)
}

func TestWavePlayerShapes(t *testing.T) {
	tests := []struct {
		shape    ugens.Shape
		expected []float64
	}{
		{shape: ugens.Sine, expected: []float64{0, 1, 0, -1}},
		{shape: ugens.Triangle, expected: []float64{0, 1, 0, -1}},
		{shape: ugens.Saw, expected: []float64{0, 0.5, -1, -0.5}},
		{shape: ugens.Square, expected: []float64{1, 1, -1, -1}},
	}
	for _, c := range tests {
		t.Run(c.shape.String(), func(t *testing.T) {
			ctx := test.Context(t)
			w := ugens.NewWavePlayer(250, ugens.WithShape(c.shape))
			assert.Equal(t, c.shape, w.Shape())
			require.NoError(t, ctx.Out.ConnectAll(w.Node(ctx)))
			for i := 0; i < 3; i++ {
				ctx.Tick()
				assert.InDeltaSlice(t, c.expected, ctx.Output()[0], delta)
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name     string
		expected ugens.Shape
		err      error
	}{
		{name: "", expected: ugens.Sine},
		{name: "Sine", expected: ugens.Sine},
		{name: "triangle", expected: ugens.Triangle},
		{name: "saw", expected: ugens.Saw},
		{name: "square", expected: ugens.Square},
		{name: "noise", err: ugens.ErrUnknownShape},
	}
	for _, c := range tests {
		s, err := ugens.ParseShape(c.name)
		if c.err != nil {
			assert.ErrorIs(t, err, c.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.expected, s)
	}
}

func TestWavetable(t *testing.T) {
	table := ugens.NewWavetable(ugens.Triangle, 8)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5}, table, delta)
	// between points and across the end of the cycle.
	assert.InDelta(t, 0.75, table.At(0.1875), delta)
	assert.InDelta(t, -0.25, table.At(0.9375), delta)
	assert.InDelta(t, 0.5, table.At(1.125), delta)
	assert.Zero(t, ugens.Wavetable(nil).At(0.5))
}

func TestOscillatorBank(t *testing.T) {
	ctx := test.Context(t)
	bank := ugens.NewOscillatorBank(ugens.Triangle, 2)
	assert.Equal(t, 2, bank.Len())
	assert.Equal(t, []float64{0, 0}, bank.Frequencies())
	assert.Equal(t, []float64{1, 1}, bank.Gains())
	n := bank.Node(ctx)
	require.NoError(t, ctx.Out.ConnectAll(n))
	assert.Equal(t, []string{"frequency0", "frequency1", "gain0", "gain1"}, n.Controls())

	// second oscillator is silent at zero frequency, sum is halved.
	bank.SetFrequencies(-250)
	assert.Equal(t, []float64{250, 0}, bank.Frequencies())
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 0.5, 0, -0.5}, ctx.Output()[0], delta)

	bank.SetGains(0.5)
	assert.Equal(t, []float64{0.5, 0}, bank.Gains())
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 0.25, 0, -0.25}, ctx.Output()[0], delta)

	bank.SetGains(1, 1)
	bank.SetFrequencies(250, 250)
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, ctx.Output()[0], delta)

	// gain driven by another node.
	bank.Gain(0).Bind(ugens.NewStatic(0).Node(ctx))
	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0, 0.5, 0, -0.5}, ctx.Output()[0], delta)
	gain, ok := n.Control("gain0")
	require.True(t, ok)
	assert.Same(t, bank.Gain(0), gain)
}

func TestOscillatorBankEmpty(t *testing.T) {
	ctx := test.Context(t)
	bank := ugens.NewOscillatorBank(ugens.Sine, 0)
	require.NoError(t, ctx.Out.ConnectAll(bank.Node(ctx)))
	ctx.Tick()
	assert.Equal(t, test.Constant(test.BufferSize, 0), ctx.Output()[0])
	assert.Empty(t, bank.Controls())
}

func newSample() *sample.Sample {
	return sample.New(signal.Float64{{1, 2, 3, 4, 5, 6}}, test.SampleRate)
}

func TestSamplePlayer(t *testing.T) {
	t.Run("once", func(t *testing.T) {
		ctx := test.Context(t)
		p := ugens.NewSamplePlayer(newSample())
		var ended atomic.Int32
		p.OnEnd(ugen.ListenerFunc(func(ugen.Node) {
			ended.Add(1)
		}))
		n := p.Node(ctx)
		require.NoError(t, ctx.Out.ConnectAll(n))

		ctx.Tick()
		assert.Equal(t, []float64{1, 2, 3, 4}, ctx.Output()[0])
		ctx.Tick()
		assert.Equal(t, []float64{5, 6, 0, 0}, ctx.Output()[0])
		assert.Equal(t, int32(1), ended.Load())
		assert.True(t, n.Deleted())
		ctx.Tick()
		assert.Equal(t, []float64{0, 0, 0, 0}, ctx.Output()[0])
	})
	t.Run("loop", func(t *testing.T) {
		ctx := test.Context(t)
		p := ugens.NewSamplePlayer(newSample())
		p.SetLoop(true)
		n := p.Node(ctx)
		require.NoError(t, ctx.Out.ConnectAll(n))
		ctx.Tick()
		ctx.Tick()
		assert.Equal(t, []float64{5, 6, 1, 2}, ctx.Output()[0])
		assert.False(t, n.Deleted())
		assert.InDelta(t, 2.0, p.Position(), delta)
	})
	t.Run("rate", func(t *testing.T) {
		ctx := test.Context(t)
		p := ugens.NewSamplePlayer(newSample())
		p.SetInterpolation(sample.Linear)
		p.SetKillOnEnd(false)
		p.SetPosition(1)
		n := p.Node(ctx)
		rate, ok := n.Control("rate")
		require.True(t, ok)
		rate.Set(0.5)
		require.NoError(t, ctx.Out.ConnectAll(n))
		ctx.Tick()
		assert.InDeltaSlice(t, []float64{2, 2.5, 3, 3.5}, ctx.Output()[0], delta)

		rate.Set(-1)
		ctx.Tick()
		assert.InDeltaSlice(t, []float64{4, 3, 2, 1}, ctx.Output()[0], delta)
		ctx.Tick()
		assert.Equal(t, []float64{0, 0, 0, 0}, ctx.Output()[0])
		assert.False(t, n.Deleted())
	})
}

func TestDelayTrigger(t *testing.T) {
	tests := []struct {
		description string
		fireAfter   bool
		step        int64
	}{
		{description: "in block", step: 3},
		{description: "after block", fireAfter: true, step: 4},
	}
	for _, c := range tests {
		t.Run(c.description, func(t *testing.T) {
			ctx := test.Context(t)
			var fired int64
			d := ugens.NewDelayTrigger(10, ugen.ListenerFunc(func(from ugen.Node) {
				fired = from.Context().Step()
			})).FireAfter(c.fireAfter)
			n, err := d.Node(ctx)
			require.NoError(t, err)
			assert.Equal(t, []ugen.Node{n}, ctx.Out.Dependents())
			for i := 0; i < 6; i++ {
				ctx.Tick()
			}
			assert.Equal(t, c.step, fired)
			assert.True(t, n.Deleted())
			assert.Empty(t, ctx.Out.Dependents())
		})
	}
}

// closingSink counts Close calls.
type closingSink struct {
	mock.Sink
	closed int
}

func (s *closingSink) Close() error {
	s.closed++
	return nil
}

func TestRecorder(t *testing.T) {
	ctx := test.Context(t)
	sink := &closingSink{Sink: mock.Sink{Limit: 2}}
	r := ugens.NewRecorder(1, sink)
	n := r.Node(ctx)
	require.NoError(t, n.ConnectAll(ctx.New(&mock.Constant{Value: 0.25}, 0, 1)))
	require.NoError(t, ctx.Out.AddDependent(n))

	ctx.Tick()
	ctx.Tick()
	assert.NoError(t, r.Err())
	assert.Equal(t, test.Constant(2*test.BufferSize, 0.25), sink.Buffer()[0])

	ctx.Tick()
	assert.True(t, errors.Is(r.Err(), mock.ErrSink))
	assert.True(t, n.Paused())

	n.Kill()
	assert.Zero(t, sink.closed)
	ctx.Tick()
	assert.Equal(t, 1, sink.closed)
}

// trackingSink counts writes that happen after Close.
type trackingSink struct {
	mu     sync.Mutex
	writes int
	late   int
	closed bool
}

func (s *trackingSink) Write([][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.closed {
		s.late++
	}
	return nil
}

func (s *trackingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *trackingSink) state() (writes, late int, closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes, s.late, s.closed
}

func TestRecorderKilledWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t)
	for i := 0; i < 50; i++ {
		ctx := test.Context(t)
		sink := &trackingSink{}
		n := ugens.NewRecorder(1, sink).Node(ctx)
		require.NoError(t, n.ConnectAll(ctx.New(&mock.Constant{Value: 1}, 0, 1)))
		require.NoError(t, ctx.Out.AddDependent(n))

		run, cancel := context.WithCancel(context.Background())
		errc := ctx.Start(run, ugen.SinkFunc(func([][]float64) error { return nil }))
		require.Eventually(t, func() bool {
			writes, _, _ := sink.state()
			return writes >= 20
		}, time.Second, time.Millisecond)
		n.Kill()
		require.Eventually(t, func() bool {
			_, _, closed := sink.state()
			return closed
		}, time.Second, time.Millisecond)
		cancel()
		for err := range errc {
			require.NoError(t, err)
		}
		_, late, _ := sink.state()
		assert.Zero(t, late)
	}
}

func TestRecorderClosedOnStop(t *testing.T) {
	ctx := test.Context(t)
	sink := &trackingSink{}
	n := ugens.NewRecorder(1, sink).Node(ctx)
	require.NoError(t, ctx.Out.AddDependent(n))

	run, cancel := context.WithCancel(context.Background())
	n.Kill()
	cancel()
	require.NoError(t, ctx.Run(run, &mock.Sink{}))
	_, _, closed := sink.state()
	assert.True(t, closed)
}

func TestCrossfade(t *testing.T) {
	ctx := test.Context(t)
	source := ctx.New(&mock.Constant{Value: 1}, 0, 1)
	destination := ctx.New(&mock.Constant{Value: 0.5}, 0, 1)
	require.NoError(t, ctx.Out.ConnectAll(source))
	require.NoError(t, ugens.Crossfade(ctx.Out, source, destination, 4))
	assert.False(t, ctx.Out.Contains(source))
	assert.Len(t, ctx.Out.Sources(), 2)

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0.875, 0.75, 0.625, 0.5}, ctx.Output()[0], delta)

	ctx.Tick()
	assert.InDeltaSlice(t, test.Constant(test.BufferSize, 0.5), ctx.Output()[0], delta)
	assert.Equal(t, []ugen.Node{destination}, ctx.Out.Sources())
	assert.Equal(t, 3, ctx.Len())
}

func TestCrossfadeDeleted(t *testing.T) {
	ctx := test.Context(t)
	source := ctx.New(&mock.Constant{Value: 1}, 0, 1)
	destination := ctx.New(&mock.Constant{Value: 0.5}, 0, 1)
	destination.Kill()
	assert.ErrorIs(t, ugens.Crossfade(ctx.Out, source, destination, 4), ugen.ErrDeleted)
}

func TestCrossfadeForeign(t *testing.T) {
	tests := []struct {
		name               string
		foreignSource      bool
		foreignDestination bool
	}{
		{name: "destination", foreignDestination: true},
		{name: "source", foreignSource: true},
	}
	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			ctx := test.Context(t)
			other := test.Context(t)
			connected := ctx.New(&mock.Constant{Value: 1}, 0, 1)
			require.NoError(t, ctx.Out.ConnectAll(connected))
			source, destination := connected, ctx.New(&mock.Constant{Value: 0.5}, 0, 1)
			if c.foreignSource {
				source = other.New(&mock.Constant{Value: 0.5}, 0, 1)
			}
			if c.foreignDestination {
				destination = other.New(&mock.Constant{Value: 0.5}, 0, 1)
			}
			before, otherBefore := ctx.Len(), other.Len()

			err := ugens.Crossfade(ctx.Out, source, destination, 4)
			assert.ErrorIs(t, err, ugen.ErrForeignNode)
			assert.Equal(t, []ugen.Node{connected}, ctx.Out.Sources())
			assert.Equal(t, before, ctx.Len())
			assert.Equal(t, otherBefore, other.Len())
			for i := 0; i < 3; i++ {
				ctx.Tick()
				assert.Equal(t, test.Constant(test.BufferSize, 1), ctx.Output()[0])
			}
		})
	}
}

func TestCrossfadeKilledSource(t *testing.T) {
	ctx := test.Context(t)
	source := ctx.New(&mock.Constant{Value: 1}, 0, 1)
	destination := ctx.New(&mock.Constant{Value: 0.5}, 0, 1)
	require.NoError(t, ctx.Out.ConnectAll(source))
	source.Kill()
	require.NoError(t, ugens.Crossfade(ctx.Out, source, destination, 4))
	// only fade in helpers are created.
	assert.Equal(t, 4, ctx.Len())

	ctx.Tick()
	assert.InDeltaSlice(t, []float64{0.125, 0.25, 0.375, 0.5}, ctx.Output()[0], delta)
	ctx.Tick()
	assert.Equal(t, []ugen.Node{destination}, ctx.Out.Sources())
	assert.Equal(t, 2, ctx.Len())
}
