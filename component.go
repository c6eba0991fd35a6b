package compose

import (
	"sort"
	"sync"

	"github.com/composefn/compose-go/pkg/schema"
)

// Props is a named-input record supplied to a component
type Props map[string]any

// Callback receives values delivered on a subscription
type Callback func(value any)

// Cleanup tears down a subscription. Cleanups are idempotent: the second and
// later calls are no-ops. A composite cleanup joins the errors of its
// children.
type Cleanup func() error

// Fields maps input names to their type descriptors
type Fields map[string]schema.Schema

// KeySet is a set of input names
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from names
func NewKeySet(keys ...string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the field names in sorted order
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks props against the field schemas: every declared field must
// be present and valid, and no undeclared field may appear. Sentinel values
// bypass per-field validation; the sentinel short-circuit rules own them.
func (f Fields) Validate(props Props) (Props, error) {
	validated := make(Props, len(props))
	for _, key := range f.Keys() {
		val, present := props[key]
		if !present {
			return nil, &schema.ValidationError{
				Message: "required input is missing",
				Path:    []string{key},
			}
		}
		if IsSentinel(val) {
			validated[key] = val
			continue
		}
		v, err := f[key].Validate(val)
		if err != nil {
			if valErr, ok := err.(*schema.ValidationError); ok {
				valErr.Path = append([]string{key}, valErr.Path...)
			}
			return nil, err
		}
		validated[key] = v
	}
	for key := range props {
		if _, declared := f[key]; !declared {
			return nil, &schema.ValidationError{
				Message: "unknown input",
				Path:    []string{key},
			}
		}
	}
	return validated, nil
}

// Component is the fundamental unit of a dataflow graph: a typed function
// from a named-input record to an output value, observable either one-shot
// (Run) or continuously (Subscribe). Run and Subscribe agree on output
// semantics: Subscribe delivers exactly what a single resolved Run would
// produce, plus intermediate sentinels.
type Component interface {
	// InputSchema returns the named inputs this component requires
	InputSchema() Fields
	// OutputSchema returns the descriptor of the produced value
	OutputSchema() schema.Schema
	// StatusKeys returns the input names that accept sentinel values
	// literally instead of short-circuiting
	StatusKeys() KeySet
	// Run computes the output for props once. The result may be a *Future.
	// Inputs are not re-validated here; validation happens at compose
	// boundaries.
	Run(props Props) (any, error)
	// Subscribe registers cb for every value this component produces for
	// props, starting synchronously. The returned cleanup suppresses all
	// further delivery.
	Subscribe(props Props, cb Callback) (Cleanup, error)
	// GetTag retrieves a metadata tag value
	GetTag(tag any) (any, bool)
	// SetTag stores a metadata tag value
	SetTag(tag any, val any)
}

// base carries the schema surface and tag storage shared by every component
// implementation in this package.
type base struct {
	inputs Fields
	output schema.Schema
	status KeySet
	tags   map[any]any
}

func newBase(inputs Fields, output schema.Schema) base {
	if inputs == nil {
		inputs = Fields{}
	}
	return base{
		inputs: inputs,
		output: output,
		status: KeySet{},
		tags:   make(map[any]any),
	}
}

func (b *base) InputSchema() Fields         { return b.inputs }
func (b *base) OutputSchema() schema.Schema { return b.output }
func (b *base) StatusKeys() KeySet          { return b.status }
func (b *base) GetTag(tag any) (any, bool) {
	val, ok := b.tags[tag]
	return val, ok
}
func (b *base) SetTag(tag any, val any) {
	b.tags[tag] = val
}

// Option configures a component at construction time
type Option func(*base)

// WithStatusKeys marks input names whose sentinel values are passed through
// literally instead of short-circuiting the component
func WithStatusKeys(keys ...string) Option {
	return func(b *base) {
		for _, k := range keys {
			b.status[k] = struct{}{}
		}
	}
}

// WithTag sets a typed metadata tag on the component
func WithTag[T any](tag Tag[T], val T) Option {
	return func(b *base) {
		b.tags[tag] = val
	}
}

// WithName sets the component's name tag, used by logging and Draw
func WithName(name string) Option {
	return WithTag(Name(), name)
}

// RunFunc computes a component's output from validated inputs. It may return
// an immediate value or a *Future for asynchronous work.
type RunFunc func(props Props) (any, error)

// funcComponent is a pure leaf: Subscribe is implemented on top of Run.
type funcComponent struct {
	base
	run RunFunc
}

// Func creates a leaf component from an input schema, an output schema and a
// run function.
func Func(inputs Fields, output schema.Schema, run RunFunc, opts ...Option) Component {
	c := &funcComponent{
		base: newBase(inputs, output),
		run:  run,
	}
	for _, opt := range opts {
		opt(&c.base)
	}
	return c
}

// Const creates a zero-input component that always produces value
func Const(output schema.Schema, value any, opts ...Option) Component {
	return Func(nil, output, func(Props) (any, error) {
		return value, nil
	}, opts...)
}

func (c *funcComponent) Run(props Props) (any, error) {
	return c.run(props)
}

func (c *funcComponent) Subscribe(props Props, cb Callback) (Cleanup, error) {
	// A sentinel on a non-status input short-circuits: deliver it and never
	// invoke run. Keys are scanned in sorted order so the delivered sentinel
	// is deterministic when several inputs carry one.
	for _, key := range c.inputs.Keys() {
		val := props[key]
		if IsSentinel(val) && !c.status.Has(key) {
			cb(val)
			return noopCleanup, nil
		}
	}

	result, err := c.run(props)
	if err != nil {
		return nil, err
	}

	future, pending := result.(*Future)
	if !pending {
		cb(result)
		return noopCleanup, nil
	}

	// Asynchronous result: Loading first, then the settled value unless the
	// subscription was cancelled in the interim. Cancellation suppresses
	// delivery only; the underlying work is not aborted.
	var mu sync.Mutex
	cancelled := false

	cb(Loading)
	future.onSettle(func(val any, err error) {
		mu.Lock()
		dead := cancelled
		mu.Unlock()
		if dead {
			return
		}
		if err != nil {
			cb(NewFailure(err))
			return
		}
		cb(val)
	})

	return func() error {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		return nil
	}, nil
}

func noopCleanup() error { return nil }
