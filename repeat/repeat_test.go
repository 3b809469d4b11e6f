package repeat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/ugen/mock"
	"github.com/dudk/ugen/repeat"
	"github.com/dudk/ugen/test"
)

type closer struct {
	mock.Sink
	err    error
	closed int
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func TestRepeat(t *testing.T) {
	ctx := test.Context(t)
	require.NoError(t, ctx.Out.ConnectAll(ctx.New(&mock.Constant{Value: 0.5}, 0, 1)))

	sink1 := &mock.Sink{}
	repeater := repeat.New(sink1)
	require.NoError(t, ctx.Render(5, repeater))

	sink2 := &mock.Sink{}
	require.NoError(t, ctx.Push(context.Background(), repeater.Add(sink2)))
	assert.Equal(t, 1, repeater.Len())
	require.NoError(t, ctx.Render(5, repeater))
	assert.Equal(t, 2, repeater.Len())

	assert.Equal(t, 10, sink1.Blocks())
	assert.Equal(t, 5, sink2.Blocks())
	assert.Equal(t, test.Constant(5*test.BufferSize, 0.5), sink2.Buffer()[0])
}

func TestErrors(t *testing.T) {
	ctx := test.Context(t)
	failing := &mock.Sink{Limit: 1}
	c1 := &closer{}
	c2 := &closer{err: errors.New("close failed")}
	repeater := repeat.New(c1, failing, c2)

	require.NoError(t, ctx.Render(1, repeater))
	err := ctx.Render(1, repeater)
	assert.ErrorIs(t, err, mock.ErrSink)
	// third sink is not reached after failure.
	assert.Equal(t, 1, c2.Blocks())

	err = repeater.Close()
	assert.ErrorIs(t, err, c2.err)
	assert.Equal(t, 1, c1.closed)
	assert.Equal(t, 1, c2.closed)
}
