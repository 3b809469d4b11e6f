// Package test contains helper functions useful for testing ugen packages.
package test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dudk/ugen"
)

// Default test context parameters.
const (
	BufferSize = 4
	SampleRate = 1000
	Channels   = 1
)

// Context returns context with small buffer and silent logger. Options
// override defaults. Property checks pass their own T.
func Context(t require.TestingT, options ...ugen.Option) *ugen.Context {
	defaults := []ugen.Option{
		ugen.WithBufferSize(BufferSize),
		ugen.WithSampleRate(SampleRate),
		ugen.WithChannels(Channels),
		ugen.WithPoolReserve(8),
		ugen.WithLogger(Logger()),
	}
	ctx, err := ugen.New(append(defaults, options...)...)
	require.NoError(t, err)
	return ctx
}

// Logger returns logger that discards output.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Path returns path of the file in a temporary directory of the test.
func Path(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// Constant returns buffer of size filled with v.
func Constant(size int, v float64) []float64 {
	b := make([]float64, size)
	for i := range b {
		b[i] = v
	}
	return b
}
