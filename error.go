package ugen

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBufferSize is returned if context buffer size is not positive.
	ErrInvalidBufferSize = errors.New("invalid buffer size")
	// ErrInvalidSampleRate is returned if context sample rate is not positive.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrInvalidChannels is returned if context has no output channels.
	ErrInvalidChannels = errors.New("invalid number of channels")
	// ErrInvalidChannel is returned if connection refers to non-existing
	// input or output.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrDeleted is returned if operation refers to a killed node.
	ErrDeleted = errors.New("node is deleted")
	// ErrForeignNode is returned if nodes of different contexts are linked.
	ErrForeignNode = errors.New("node belongs to another context")
)

// ErrorSink is returned when sink failed to consume a block.
type ErrorSink struct {
	Step int64
	Err  error
}

func (e *ErrorSink) Error() string {
	return fmt.Sprintf("sink error at step %d: %v", e.Step, e.Err)
}

// Unwrap returns the sink error.
func (e *ErrorSink) Unwrap() error {
	return e.Err
}

// check returns entries of both nodes if they can be linked.
// Check returns error if the node can't be linked with other: either of
// them is deleted or they belong to different contexts.
func (n Node) Check(other Node) error {
	_, _, err := check(n, other)
	return err
}

func check(n, other Node) (*entry, *entry, error) {
	e := n.entry()
	if e == nil {
		return nil, nil, fmt.Errorf("%v: %w", n, ErrDeleted)
	}
	if other.ctx != nil && other.ctx != n.ctx {
		return nil, nil, fmt.Errorf("%v: %w", other, ErrForeignNode)
	}
	o := other.entry()
	if o == nil {
		return nil, nil, fmt.Errorf("%v: %w", other, ErrDeleted)
	}
	return e, o, nil
}
