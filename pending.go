package batchloader

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Pending is a single-assignment future for one key's values within one
// batch. It is created by Load and completed exactly once when the owning
// loader dispatches (or when its batch fails).
type Pending[V any] struct {
	done      chan struct{}
	values    []V
	err       error
	completed atomic.Bool
}

func newPending[V any]() *Pending[V] {
	return &Pending[V]{done: make(chan struct{})}
}

func completedPending[V any](values []V, err error) *Pending[V] {
	p := newPending[V]()
	p.complete(values, err)
	return p
}

// complete assigns the outcome. Later calls are ignored; the dispatch
// protocol completes each pending once, this guard covers abort races.
func (p *Pending[V]) complete(values []V, err error) {
	if !p.completed.CompareAndSwap(false, true) {
		return
	}
	p.values = values
	p.err = err
	close(p.done)
}

// Get blocks until the result is available or ctx is canceled.
//
// A key absent from the batch function's result yields an empty slice and a
// nil error. If the batch fetch failed, every Get on that batch returns the
// same error.
//
// While blocked, Get reports the caller as idle to the Context installed in
// ctx, which is how the drain loop knows resolvers have quiesced and the
// current batches are ready to dispatch. Callers inside Run should therefore
// pass the ctx their body or task was given.
func (p *Pending[V]) Get(ctx context.Context) ([]V, error) {
	if p == nil {
		return nil, fmt.Errorf("Get: nil Pending")
	}
	if ctx == nil {
		return nil, fmt.Errorf("Get: nil context")
	}

	select {
	case <-p.done:
		return p.values, p.err
	default:
	}

	if c, ok := Current(ctx); ok {
		c.beginWait()
		defer c.endWait()
	}

	select {
	case <-p.done:
		return p.values, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
