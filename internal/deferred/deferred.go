// Package deferred provides a result cell that is settled by a different
// code path than the one waiting on it.
//
// A request submitter creates a Cell, stores it where the event handler can
// find it and waits. The handler later resolves or rejects the cell; only
// the first settlement takes effect.
package deferred

import (
	"context"
	"sync"
)

// Cell is a one-shot result slot.
type Cell[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled Cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

func (c *Cell[T]) settle(value T, err error) bool {
	if c.done == nil {
		panic("deferred: cell used without New")
	}
	settled := false
	c.once.Do(func() {
		c.value = value
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}

// Resolve settles the cell with value. It reports whether this call took
// effect.
func (c *Cell[T]) Resolve(value T) bool {
	return c.settle(value, nil)
}

// Reject settles the cell with err. It reports whether this call took
// effect.
func (c *Cell[T]) Reject(err error) bool {
	var zero T
	return c.settle(zero, err)
}

// Done is closed once the cell is settled.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the cell has been resolved or rejected.
func (c *Cell[T]) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the cell is settled or ctx is done. Cancelling ctx
// abandons the wait only; the cell can still be settled afterwards.
func (c *Cell[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
