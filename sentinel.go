package compose

import "fmt"

// Sentinels are the two distinguished values that flow through a graph in
// place of real data. Loading means "no value yet"; a *Failure wraps an error
// that occurred upstream. On the subscribe path they are ordinary values: a
// component that lists an input in its status keys sees them literally,
// every other component short-circuits and re-emits them unchanged.

type loadingSentinel struct{}

func (*loadingSentinel) String() string {
	return "<loading>"
}

// Loading is the singleton "no value yet" sentinel, compared by identity.
var Loading = &loadingSentinel{}

// Failure wraps an error that was caught on the subscribe path. Each
// occurrence is a distinct allocation, so repeated failures are not
// deduplicated by the identity check in compose.
type Failure struct {
	Err error
}

// NewFailure wraps err in a Failure sentinel
func NewFailure(err error) *Failure {
	return &Failure{Err: err}
}

func (f *Failure) String() string {
	return fmt.Sprintf("<failure: %v>", f.Err)
}

// Unwrap exposes the wrapped error to errors.Is/errors.As
func (f *Failure) Unwrap() error {
	return f.Err
}

// IsLoading reports whether v is the Loading sentinel
func IsLoading(v any) bool {
	return v == any(Loading)
}

// AsFailure returns the Failure sentinel if v is one
func AsFailure(v any) (*Failure, bool) {
	f, ok := v.(*Failure)
	return f, ok
}

// IsSentinel reports whether v is Loading or a Failure
func IsSentinel(v any) bool {
	if IsLoading(v) {
		return true
	}
	_, ok := v.(*Failure)
	return ok
}
