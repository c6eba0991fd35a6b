package compose

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/composefn/compose-go/pkg/schema"
)

// Subscription identifies one active subscription to an observed component
type Subscription struct {
	// ID is unique per Subscribe call
	ID string
	// Component is the observed component
	Component Component
}

// Extension provides hooks into the subscription lifecycle of an observed
// component. Hooks run synchronously on the delivering goroutine and must
// not block.
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// WrapRun intercepts one-shot resolution
	WrapRun(next func() (any, error), sub Subscription) (any, error)

	// OnSubscribe is called when a subscription is established
	OnSubscribe(sub Subscription, props Props)

	// OnDeliver is called for every non-sentinel value delivered
	OnDeliver(sub Subscription, value any)

	// OnShortCircuit is called for every sentinel delivered
	OnShortCircuit(sub Subscription, sentinel any)

	// OnCleanup is called after the subscription's cleanup runs
	OnCleanup(sub Subscription, err error)
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) WrapRun(next func() (any, error), sub Subscription) (any, error) {
	return next()
}

func (e *BaseExtension) OnSubscribe(sub Subscription, props Props) {
}

func (e *BaseExtension) OnDeliver(sub Subscription, value any) {
}

func (e *BaseExtension) OnShortCircuit(sub Subscription, sentinel any) {
}

func (e *BaseExtension) OnCleanup(sub Subscription, err error) {
}

// Observe wraps a component so the given extensions see its subscription
// traffic. The wrapper is transparent: schemas, status keys and tags are
// those of the wrapped component, and values flow through unchanged.
// Extensions run in Order; WrapRun applies in reverse registration order so
// the last extension wraps first.
func Observe(c Component, exts ...Extension) Component {
	sorted := make([]Extension, len(exts))
	copy(sorted, exts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &observed{inner: c, extensions: sorted}
}

type observed struct {
	inner      Component
	extensions []Extension
}

func (o *observed) InputSchema() Fields         { return o.inner.InputSchema() }
func (o *observed) OutputSchema() schema.Schema { return o.inner.OutputSchema() }
func (o *observed) StatusKeys() KeySet          { return o.inner.StatusKeys() }
func (o *observed) GetTag(tag any) (any, bool)  { return o.inner.GetTag(tag) }
func (o *observed) SetTag(tag any, val any)     { o.inner.SetTag(tag, val) }

func (o *observed) Run(props Props) (any, error) {
	sub := Subscription{ID: uuid.NewString(), Component: o.inner}
	next := func() (any, error) {
		return o.inner.Run(props)
	}
	for i := len(o.extensions) - 1; i >= 0; i-- {
		ext := o.extensions[i]
		currentNext := next
		next = func() (any, error) {
			return ext.WrapRun(currentNext, sub)
		}
	}
	return next()
}

func (o *observed) Subscribe(props Props, cb Callback) (Cleanup, error) {
	sub := Subscription{ID: uuid.NewString(), Component: o.inner}
	for _, ext := range o.extensions {
		ext.OnSubscribe(sub, props)
	}

	cleanup, err := o.inner.Subscribe(props, func(value any) {
		if IsSentinel(value) {
			for _, ext := range o.extensions {
				ext.OnShortCircuit(sub, value)
			}
		} else {
			for _, ext := range o.extensions {
				ext.OnDeliver(sub, value)
			}
		}
		cb(value)
	})
	if err != nil {
		return nil, err
	}

	// The inner cleanup is idempotent; latch the hook so repeat calls do not
	// re-notify extensions.
	var once sync.Once
	var cleanupErr error
	return func() error {
		once.Do(func() {
			cleanupErr = cleanup()
			for _, ext := range o.extensions {
				ext.OnCleanup(sub, cleanupErr)
			}
		})
		return cleanupErr
	}, nil
}
