package compose

import (
	"fmt"
	"runtime/debug"
)

// ConfigError reports a graph construction mistake: wiring a key that does
// not exist, incompatible schemas on a shared input name, a feedback key
// whose type differs from the component's output. Construction errors are
// never recoverable at runtime; the Must* constructors panic on them.
type ConfigError struct {
	Op     string
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: input %q: %s", e.Op, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// BoundaryError wraps a validation failure at a compose boundary: either
// caller-supplied props failing the merged input schema, or an upstream
// output failing its declared schema before crossing into the downstream
// component.
type BoundaryError struct {
	Component  string
	Key        string
	Cause      error
	StackTrace []byte
}

func (e *BoundaryError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("boundary error at %s input %q: %v", e.Component, e.Key, e.Cause)
	}
	return fmt.Sprintf("boundary error at %s: %v", e.Component, e.Cause)
}

func (e *BoundaryError) Unwrap() error {
	return e.Cause
}

func newBoundaryError(component, key string, cause error) *BoundaryError {
	return &BoundaryError{
		Component:  component,
		Key:        key,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
