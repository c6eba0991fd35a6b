package compose

import (
	"context"
	"sync"
)

// Future is a single-shot pending result. A component's Run may return one
// instead of an immediate value; Subscribe detects it, delivers Loading
// synchronously, and delivers the settled value (or a Failure sentinel) when
// the future completes. Settling is first-wins and idempotent.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	val       any
	err       error
	callbacks []func(any, error)
}

// SettleFunc completes a future with a value or an error. Calls after the
// first are ignored.
type SettleFunc func(val any, err error)

// NewFuture creates an unsettled future and its settle function
func NewFuture() (*Future, SettleFunc) {
	f := &Future{done: make(chan struct{})}
	return f, f.settle
}

// Go runs fn on a new goroutine and returns a future settled with its result
func Go(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		f.settle(fn())
	}()
	return f
}

func (f *Future) settle(val any, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.val = val
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	close(f.done)
	for _, cb := range callbacks {
		cb(val, err)
	}
}

// Done returns a channel closed when the future settles
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is cancelled
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitAs awaits the future and asserts the result type
func AwaitAs[T any](ctx context.Context, f *Future) (T, error) {
	val, err := f.Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return SafeTypeAssertion[T](val)
}

// onSettle registers fn to run when the future settles. If the future is
// already settled, fn runs synchronously on the calling goroutine; otherwise
// it runs on the settling goroutine.
func (f *Future) onSettle(fn func(any, error)) {
	f.mu.Lock()
	if f.settled {
		val, err := f.val, f.err
		f.mu.Unlock()
		fn(val, err)
		return
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}
