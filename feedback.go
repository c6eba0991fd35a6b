package compose

import (
	"context"
	"sync"

	"github.com/composefn/compose-go/pkg/schema"
)

// Feedback closes a loop on from: the input named key is fed from's own
// previous output, seeded with initial. The accumulator is read passively at
// invocation time and only updated between invocations; a change to it never
// triggers a new invocation by itself, so closed loops are structurally
// non-self-triggering.
func Feedback(from Component, key string, initial any) (Component, error) {
	fromInputs := from.InputSchema()
	keySchema, ok := fromInputs[key]
	if !ok {
		return nil, &ConfigError{Op: "feedback", Key: key, Reason: "not an input of the component"}
	}
	if !schema.Equal(keySchema, from.OutputSchema()) {
		return nil, &ConfigError{Op: "feedback", Key: key, Reason: "input schema does not match the component's output schema"}
	}

	seeded, err := from.OutputSchema().Validate(initial)
	if err != nil {
		return nil, &ConfigError{Op: "feedback", Key: key, Reason: "initial value rejected: " + err.Error()}
	}

	remaining := make(Fields, len(fromInputs)-1)
	for name, s := range fromInputs {
		if name == key {
			continue
		}
		remaining[name] = s
	}

	f := &feedback{
		base: newBase(remaining, from.OutputSchema()),
		from: from,
		key:  key,
		acc:  seeded,
	}
	return f, nil
}

// MustFeedback is Feedback, panicking on configuration errors
func MustFeedback(from Component, key string, initial any) Component {
	c, err := Feedback(from, key, initial)
	if err != nil {
		panic(err)
	}
	return c
}

type feedback struct {
	base
	from Component
	key  string

	mu  sync.Mutex
	acc any
}

func (f *feedback) current() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acc
}

// record stores a resolved output as the next accumulator value. Sentinels
// never enter the accumulator.
func (f *feedback) record(val any) {
	if IsSentinel(val) {
		return
	}
	f.mu.Lock()
	f.acc = val
	f.mu.Unlock()
}

func (f *feedback) withAccumulator(props Props) Props {
	merged := make(Props, len(props)+1)
	for k, v := range props {
		merged[k] = v
	}
	merged[f.key] = f.current()
	return merged
}

func (f *feedback) Run(props Props) (any, error) {
	result, err := f.from.Run(f.withAccumulator(props))
	if err != nil {
		return nil, err
	}

	if future, pending := result.(*Future); pending {
		return Go(func() (any, error) {
			val, err := future.Await(context.Background())
			if err != nil {
				return nil, err
			}
			f.record(val)
			return val, nil
		}), nil
	}

	f.record(result)
	return result, nil
}

func (f *feedback) Subscribe(props Props, cb Callback) (Cleanup, error) {
	// The accumulator is read once at subscribe time, not re-read per
	// emission; later outputs update it for the next invocation only.
	return f.from.Subscribe(f.withAccumulator(props), func(val any) {
		f.record(val)
		cb(val)
	})
}
