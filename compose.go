package compose

import (
	"context"
	"errors"
	"sync"

	"github.com/composefn/compose-go/pkg/schema"
)

// Compose wires from's output into into's input named key, producing a new
// component whose input schema is (into's schema minus key) merged with
// from's schema. A name appearing on both sides must be declared with equal
// schemas; it is then single-sourced and routed to both components.
//
// The composite's status keys are empty: status propagation is local to a
// component, not inherited through composition.
func Compose(into Component, key string, from Component) (Component, error) {
	intoInputs := into.InputSchema()
	keySchema, ok := intoInputs[key]
	if !ok {
		return nil, &ConfigError{Op: "compose", Key: key, Reason: "not an input of the downstream component"}
	}
	if !schema.Equal(keySchema, from.OutputSchema()) {
		return nil, &ConfigError{Op: "compose", Key: key, Reason: "upstream output schema does not match the downstream input schema"}
	}

	fromInputs := from.InputSchema()
	merged := make(Fields, len(intoInputs)+len(fromInputs)-1)
	for name, s := range intoInputs {
		if name == key {
			continue
		}
		merged[name] = s
	}
	for name, s := range fromInputs {
		if existing, overlap := merged[name]; overlap {
			if !schema.Equal(existing, s) {
				return nil, &ConfigError{Op: "compose", Key: name, Reason: "shared input declared with incompatible schemas"}
			}
			continue
		}
		merged[name] = s
	}

	c := &composed{
		base: newBase(merged, into.OutputSchema()),
		into: into,
		from: from,
		key:  key,
	}
	return c, nil
}

// MustCompose is Compose, panicking on configuration errors
func MustCompose(into Component, key string, from Component) Component {
	c, err := Compose(into, key, from)
	if err != nil {
		panic(err)
	}
	return c
}

type composed struct {
	base
	into Component
	from Component
	key  string
}

// partition splits validated props into the upstream component's inputs and
// the residual fields destined for the downstream component. A shared name
// lands in both.
func (c *composed) partition(props Props) (fromIn, residual Props) {
	fromIn = make(Props, len(c.from.InputSchema()))
	for name := range c.from.InputSchema() {
		if val, ok := props[name]; ok {
			fromIn[name] = val
		}
	}
	residual = make(Props, len(c.into.InputSchema()))
	for name := range c.into.InputSchema() {
		if name == c.key {
			continue
		}
		if val, ok := props[name]; ok {
			residual[name] = val
		}
	}
	return fromIn, residual
}

func (c *composed) validate(props Props) (Props, error) {
	validated, err := c.inputs.Validate(props)
	if err != nil {
		return nil, newBoundaryError(displayName(c), "", err)
	}
	return validated, nil
}

// checkBoundary validates an upstream output value before it crosses into
// the downstream component. Sentinels never reach this check.
func (c *composed) checkBoundary(val any) (any, error) {
	validated, err := c.from.OutputSchema().Validate(val)
	if err != nil {
		return nil, newBoundaryError(displayName(c.into), c.key, err)
	}
	return validated, nil
}

func (c *composed) Run(props Props) (any, error) {
	validated, err := c.validate(props)
	if err != nil {
		return nil, err
	}

	// A sentinel arriving as a composed input short-circuits the whole
	// composite on the run path as well.
	for _, key := range c.inputs.Keys() {
		if val := validated[key]; IsSentinel(val) && !c.status.Has(key) {
			return val, nil
		}
	}

	fromIn, residual := c.partition(validated)

	upstream, err := c.from.Run(fromIn)
	if err != nil {
		return nil, err
	}

	if future, pending := upstream.(*Future); pending {
		return Go(func() (any, error) {
			val, err := future.Await(context.Background())
			if err != nil {
				return nil, err
			}
			result, err := c.finishRun(residual, val)
			if err != nil {
				return nil, err
			}
			// Already pending overall; flatten a nested pending result.
			if nested, stillPending := result.(*Future); stillPending {
				return nested.Await(context.Background())
			}
			return result, nil
		}), nil
	}

	// The downstream component's pending/immediate nature propagates
	// unchanged.
	return c.finishRun(residual, upstream)
}

// finishRun crosses the boundary with the upstream value and runs the
// downstream component.
func (c *composed) finishRun(residual Props, upstream any) (any, error) {
	if IsSentinel(upstream) && !c.into.StatusKeys().Has(c.key) {
		return upstream, nil
	}

	val := upstream
	if !IsSentinel(upstream) {
		var err error
		val, err = c.checkBoundary(upstream)
		if err != nil {
			return nil, err
		}
	}

	intoProps := make(Props, len(residual)+1)
	for k, v := range residual {
		intoProps[k] = v
	}
	intoProps[c.key] = val

	return c.into.Run(intoProps)
}

// composeSub owns the lifecycle of one composed subscription: the upstream
// subscription, the current downstream subscription, the delivery queue, the
// dedup state and the disposal flag. mu is never held across a callback or a
// child cleanup, so a callback may invoke its own subscription's cleanup.
type composeSub struct {
	mu       sync.Mutex // guards lifecycle state and the delivery queue
	cbMu     sync.Mutex // serializes downstream callback invocations
	disposed bool
	draining bool
	queue    []any
	gen      uint64
	prev     any
	hasPrev  bool
	inner    Cleanup
	upstream Cleanup
}

func (c *composed) Subscribe(props Props, cb Callback) (Cleanup, error) {
	validated, err := c.validate(props)
	if err != nil {
		return nil, err
	}

	fromIn, residual := c.partition(validated)
	sub := &composeSub{}

	// The upstream may deliver synchronously during Subscribe; a failure
	// raised inside that delivery belongs to this call, not to an emitting
	// goroutine, so it is recovered into the error return.
	var upstream Cleanup
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					err = e
					return
				}
				panic(r)
			}
		}()
		upstream, err = c.from.Subscribe(fromIn, func(val any) {
			c.deliver(sub, residual, val, cb)
		})
		return err
	}()
	if err != nil {
		return nil, err
	}

	sub.mu.Lock()
	sub.upstream = upstream
	disposed := sub.disposed
	sub.mu.Unlock()
	if disposed {
		// Disposed during synchronous setup; tear the upstream down now.
		_ = upstream()
	}

	return func() error {
		sub.mu.Lock()
		if sub.disposed {
			sub.mu.Unlock()
			return nil
		}
		sub.disposed = true
		inner := sub.inner
		sub.inner = nil
		up := sub.upstream
		sub.upstream = nil
		sub.mu.Unlock()

		var errs []error
		if inner != nil {
			errs = append(errs, inner())
		}
		if up != nil {
			errs = append(errs, up())
		}
		return errors.Join(errs...)
	}, nil
}

// deliver queues one value from the upstream subscription and, unless a drain
// is already running on another frame, drains the queue in order. Each drained
// value fully tears down the previous downstream subscription before its
// replacement is established. The lock is released around every callback and
// child cleanup, so a callback unsubscribing itself cannot deadlock.
func (c *composed) deliver(sub *composeSub, residual Props, val any, cb Callback) {
	sub.mu.Lock()
	if sub.disposed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, val)
	if sub.draining {
		sub.mu.Unlock()
		return
	}
	sub.draining = true
	sub.mu.Unlock()

	defer func() {
		sub.mu.Lock()
		sub.draining = false
		sub.mu.Unlock()
	}()

	for {
		sub.mu.Lock()
		if sub.disposed || len(sub.queue) == 0 {
			sub.mu.Unlock()
			return
		}
		v := sub.queue[0]
		sub.queue = sub.queue[1:]

		// A value reference-identical to the immediately preceding one is
		// a no-op downstream.
		if sub.hasPrev && identical(sub.prev, v) {
			sub.mu.Unlock()
			continue
		}
		sub.prev = v
		sub.hasPrev = true
		inner := sub.inner
		sub.inner = nil
		sub.gen++
		myGen := sub.gen
		sub.mu.Unlock()

		if inner != nil {
			_ = inner()
		}

		if IsSentinel(v) && !c.into.StatusKeys().Has(c.key) {
			sub.emit(cb, v)
			continue
		}

		crossing := v
		if !IsSentinel(v) {
			validated, err := c.checkBoundary(v)
			if err != nil {
				// No caller exists on an upstream delivery; a boundary
				// failure here surfaces on the emitting goroutine's stack.
				panic(err)
			}
			crossing = validated
		}

		intoProps := make(Props, len(residual)+1)
		for k, rv := range residual {
			intoProps[k] = rv
		}
		intoProps[c.key] = crossing

		inner, err := c.into.Subscribe(intoProps, func(downstream any) {
			if sub.stale(myGen) {
				return
			}
			sub.emit(cb, downstream)
		})
		if err != nil {
			// A synchronous downstream failure has no caller to return to
			// on an upstream delivery; it propagates raw on the emitting
			// stack.
			panic(err)
		}

		sub.mu.Lock()
		if sub.disposed {
			// Disposed from inside the delivery; the cleanup could not see
			// this subscription yet, so tear it down here.
			sub.mu.Unlock()
			_ = inner()
			continue
		}
		sub.inner = inner
		sub.mu.Unlock()
	}
}

// stale reports whether a downstream delivery belongs to a torn-down
// subscription generation.
func (s *composeSub) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed || s.gen != gen
}

func (s *composeSub) emit(cb Callback, val any) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return
	}
	cb(val)
}
