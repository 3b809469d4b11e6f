// Package mutable allows to change engine objects from control goroutines
// safely. Changes are wrapped into mutations, pushed into a queue and
// applied by the audio goroutine between blocks.
package mutable

import (
	"context"

	"github.com/rs/xid"
)

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make structure behaviour mutable.
	Context xid.ID

	// Mutation is mutator function associated with a certain mutable context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// MutatorFunc mutates the object.
	MutatorFunc func()

	// Queue delivers mutations to the audio goroutine.
	Queue struct {
		c chan []Mutation
	}
)

// Mutable returns new mutable context.
func Mutable() Context {
	return Context(xid.New())
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with mutable and return mutation.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// IsMutable returns true if object is mutable.
func (c Context) IsMutable() bool {
	return c != immutable
}

// String returns context id.
func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply mutator function.
func (m Mutation) Apply() {
	m.mutator()
}

// NewQueue returns a queue that holds up to size batches of mutations.
func NewQueue(size int) *Queue {
	return &Queue{
		c: make(chan []Mutation, size),
	}
}

// Push mutations to the queue. It blocks when the queue is full until
// there is room or context is done.
func (q *Queue) Push(ctx context.Context, mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	select {
	case q.c <- mutations:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply drains the queue and applies all mutations in the order they
// were pushed. It never blocks. Number of applied mutations is returned.
func (q *Queue) Apply() int {
	var n int
	for {
		select {
		case ms := <-q.c:
			for _, m := range ms {
				m.Apply()
			}
			n += len(ms)
		default:
			return n
		}
	}
}
