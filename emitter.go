package compose

import (
	"sync"

	"github.com/composefn/compose-go/pkg/schema"
)

// EmitFunc pushes a value from an external source into a subscription
type EmitFunc func(value any)

// EmitterFunc is the user-supplied body of an emitter. The canonical
// argument order is (props, emit); no other order is supported. It returns
// the cleanup that stops the external source.
type EmitterFunc func(props Props, emit EmitFunc) (Cleanup, error)

// Emitter creates a push-driven component: values arrive via the emit
// callback rather than being computed from inputs on demand. If the body
// returns without having emitted synchronously, the subscriber receives the
// Loading sentinel immediately after. Emitters do not apply status-key
// semantics to their own inputs.
func Emitter(inputs Fields, output schema.Schema, run EmitterFunc, opts ...Option) Component {
	e := &emitter{
		base: newBase(inputs, output),
		run:  run,
	}
	for _, opt := range opts {
		opt(&e.base)
	}
	return e
}

// Source creates a zero-input emitter
func Source(output schema.Schema, run func(emit EmitFunc) (Cleanup, error), opts ...Option) Component {
	return Emitter(nil, output, func(_ Props, emit EmitFunc) (Cleanup, error) {
		return run(emit)
	}, opts...)
}

type emitter struct {
	base
	run EmitterFunc
}

// Run resolves a pending result with the first emitted value, then
// immediately invokes the user cleanup: the emitter's lifetime for a
// one-shot call is exactly one emission.
func (e *emitter) Run(props Props) (any, error) {
	future, settle := NewFuture()

	var mu sync.Mutex
	var cleanup Cleanup
	var done, cleanedUp bool

	finish := func() {
		// Invoked with mu held; releases before running the user cleanup.
		if cleanup == nil || cleanedUp {
			mu.Unlock()
			return
		}
		cleanedUp = true
		fn := cleanup
		mu.Unlock()
		_ = fn()
	}

	emit := func(value any) {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		settle(value, nil)
		finish()
	}

	userCleanup, err := e.run(props, emit)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	cleanup = userCleanup
	if done {
		// First value was emitted synchronously, before the cleanup was
		// known; run it now.
		finish()
	} else {
		mu.Unlock()
	}

	return future, nil
}

func (e *emitter) Subscribe(props Props, cb Callback) (Cleanup, error) {
	var mu sync.Mutex
	var queue []any
	emitted := false
	cancelled := false
	draining := false

	// drain delivers queued values in order. The caller holds mu; it is
	// released around every cb invocation, so a callback cancelling its own
	// subscription cannot deadlock. A drain already running on another frame
	// picks up whatever this one queued.
	drain := func() {
		if draining {
			mu.Unlock()
			return
		}
		draining = true
		mu.Unlock()

		defer func() {
			mu.Lock()
			draining = false
			mu.Unlock()
		}()

		for {
			mu.Lock()
			if cancelled || len(queue) == 0 {
				mu.Unlock()
				return
			}
			v := queue[0]
			queue = queue[1:]
			mu.Unlock()

			cb(v)
		}
	}

	emit := func(value any) {
		mu.Lock()
		if cancelled {
			mu.Unlock()
			return
		}
		emitted = true
		queue = append(queue, value)
		drain()
	}

	userCleanup, err := e.run(props, emit)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	if !emitted {
		emitted = true
		queue = append(queue, Loading)
		drain()
	} else {
		mu.Unlock()
	}

	var once sync.Once
	var cleanupErr error
	return func() error {
		once.Do(func() {
			mu.Lock()
			cancelled = true
			mu.Unlock()
			if userCleanup != nil {
				cleanupErr = userCleanup()
			}
		})
		return cleanupErr
	}, nil
}
