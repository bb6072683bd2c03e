package batchloader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	stateIdle int32 = iota
	stateDraining
	stateDone
)

// dispatcher is the capability the engine needs from a registered loader:
// take the pending batch and issue one bulk fetch for it, or fail it.
type dispatcher interface {
	dispatch(ctx context.Context)
	abort(err error)
}

// Context owns one logical run: the enlistment queue, the loader registry
// and the drain loop. Create one per run with NewContext (or implicitly via
// Run); a Context is terminal once its single drain pass completes.
//
// Multiple Contexts may run concurrently; they share nothing.
type Context struct {
	mu      sync.Mutex
	queue   []dispatcher
	loaders map[any]any

	state atomic.Int32

	// tasks counts tracked resolver goroutines (the body plus everything
	// started via Go); blocked counts callers parked in Pending.Get. The
	// drain loop dispatches when tasks-blocked reaches zero and terminates
	// when tasks and the queue are both empty.
	tasks   atomic.Int64
	blocked atomic.Int64
	wake    chan struct{}

	eg errgroup.Group
}

func NewContext() *Context {
	return &Context{
		loaders: make(map[any]any),
		wake:    make(chan struct{}, 1),
	}
}

// Run creates a fresh Context, installs it into ctx, executes body as the
// first tracked task and drains enlisted loaders until quiescence. It
// returns body's result (or error) once the drain has completed and every
// tracked task has finished.
//
// A panic in body or in a tracked task propagates to Run's caller.
func Run[T any](ctx context.Context, body func(ctx context.Context) (T, error)) (T, error) {
	return RunWith(ctx, NewContext(), body)
}

// RunWith is Run driving an explicit Context. Only one run is permitted per
// Context: a concurrent second call fails with ErrDrainActive, a later one
// with ErrRunFinished.
func RunWith[T any](ctx context.Context, c *Context, body func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, fmt.Errorf("RunWith: nil context")
	}
	if c == nil {
		return zero, fmt.Errorf("RunWith: nil Context (use NewContext)")
	}
	if c.wake == nil || c.loaders == nil {
		return zero, fmt.Errorf("RunWith: uninitialized Context (use NewContext)")
	}
	if body == nil {
		return zero, fmt.Errorf("RunWith: nil body")
	}

	if !c.state.CompareAndSwap(stateIdle, stateDraining) {
		if c.state.Load() == stateDraining {
			return zero, ErrDrainActive
		}
		return zero, ErrRunFinished
	}

	runCtx := Enter(ctx, c)

	var (
		result  T
		bodyErr error
	)
	c.Go(func() error {
		result, bodyErr = body(runCtx)
		return bodyErr
	})

	drainErr := c.drain(runCtx)
	c.finish()
	if drainErr != nil {
		// Fail whatever was still queued so no waiter is left hanging.
		c.abortQueued(drainErr)
	}

	// Waits for the body and all tracked tasks; repropagates their panics.
	waitErr := c.eg.Wait()

	if drainErr != nil {
		return zero, fmt.Errorf("RunWith: drain aborted: %w", drainErr)
	}
	if bodyErr != nil {
		return zero, bodyErr
	}
	if waitErr != nil {
		return zero, waitErr
	}
	return result, nil
}

// Go runs fn as a tracked task. The drain loop holds the run open until
// every tracked task has finished, and delays dispatch until all of them are
// parked in Pending.Get, so loads issued by sibling tasks coalesce into full
// batches. Resolver concurrency inside Run must go through Go; untracked
// goroutines may still call Load safely but do not hold the drain open.
//
// fn's error fails the run (after the drain completes) unless the body
// already failed. Go must not be called after the run has finished.
func (c *Context) Go(fn func() error) {
	if fn == nil {
		panic("batchloader: Go called with nil function")
	}
	if c.state.Load() == stateDone {
		panic("batchloader: Go called after run finished")
	}
	c.tasks.Add(1)
	c.eg.Go(func() error {
		defer func() {
			c.tasks.Add(-1)
			c.signal()
		}()
		return fn()
	})
}

// drain dispatches enlisted loaders until both the queue and the tracked
// task set are empty.
//
// Scheduling:
//   - Loaders are dispatched serially, in enlistment (FIFO) order; one bulk
//     fetch is fully fanned out before the next begins.
//   - A pass starts only once no tracked task is runnable (all parked in
//     Get or finished), so a wave of resolvers contributes its full key set
//     before the batch goes out.
//   - Continuations woken by a fan-out run concurrently with subsequent
//     dispatches; the loop only parks when nothing is left to dispatch.
//
// Cancellation aborts between passes; an in-flight batch fetch is never
// interrupted by the loop itself (it sees ctx and may honor it).
func (c *Context) drain(ctx context.Context) error {
	for {
		if c.runnable() <= 0 {
			if q := c.takeQueue(); len(q) > 0 {
				for _, d := range q {
					d.dispatch(ctx)
				}
				continue
			}
		}

		if c.tasks.Load() == 0 && c.queueEmpty() {
			return nil
		}

		select {
		case <-c.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// enlist queues d for the next drain pass. It reports false once the
// Context is terminal, in which case the caller must fail its batch.
func (c *Context) enlist(d dispatcher) bool {
	c.mu.Lock()
	if c.state.Load() == stateDone {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, d)
	c.mu.Unlock()
	c.signal()
	return true
}

func (c *Context) takeQueue() []dispatcher {
	c.mu.Lock()
	q := c.queue
	c.queue = nil
	c.mu.Unlock()
	return q
}

func (c *Context) queueEmpty() bool {
	c.mu.Lock()
	empty := len(c.queue) == 0
	c.mu.Unlock()
	return empty
}

// finish marks the Context terminal. Taken under mu so enlist cannot
// succeed afterwards; see enlist.
func (c *Context) finish() {
	c.mu.Lock()
	c.state.Store(stateDone)
	c.mu.Unlock()
}

func (c *Context) abortQueued(err error) {
	for q := c.takeQueue(); len(q) > 0; q = c.takeQueue() {
		for _, d := range q {
			d.abort(err)
		}
	}
}

func (c *Context) terminal() bool {
	return c.state.Load() == stateDone
}

func (c *Context) runnable() int64 {
	return c.tasks.Load() - c.blocked.Load()
}

func (c *Context) beginWait() {
	c.blocked.Add(1)
	c.signal()
}

func (c *Context) endWait() {
	c.blocked.Add(-1)
	c.signal()
}

func (c *Context) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
