package compose

import (
	"sync"

	"github.com/composefn/compose-go/pkg/schema"
)

// Setter replaces a state cell's current value and notifies every registered
// listener with it.
type Setter func(value any)

// State creates a state cell: a zero-input component holding a mutable value,
// plus the external setter controlling it. Run returns the current value
// synchronously; Subscribe registers the callback and immediately delivers
// the current value. State never emits sentinels on its own.
//
// Notification uses snapshot-then-notify: the setter captures the listener
// set under the lock and invokes callbacks outside it, queueing reentrant
// setter calls so a single listener always observes successive values in
// setter order. A listener added mid-notification is not called for the
// in-flight value; one removed mid-notification may still receive it once.
func State(valueSchema schema.Schema, initial any, opts ...Option) (Component, Setter) {
	s := &stateCell{
		base:      newBase(nil, valueSchema),
		current:   initial,
		listeners: make(map[uint64]Callback),
	}
	for _, opt := range opts {
		opt(&s.base)
	}
	return s, s.set
}

type stateCell struct {
	base

	mu        sync.Mutex
	current   any
	listeners map[uint64]Callback
	nextID    uint64
	queue     []notification
	notifying bool
}

type notification struct {
	value     any
	listeners []Callback
}

func (s *stateCell) Run(props Props) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *stateCell) Subscribe(props Props, cb Callback) (Cleanup, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = cb

	// The initial delivery goes through the same queue as setter
	// notifications, so it can never arrive after a newer value.
	s.queue = append(s.queue, notification{value: s.current, listeners: []Callback{cb}})
	s.drainLocked()

	var once sync.Once
	return func() error {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
		return nil
	}, nil
}

func (s *stateCell) set(value any) {
	s.mu.Lock()
	s.current = value

	snapshot := make([]Callback, 0, len(s.listeners))
	for _, cb := range s.listeners {
		snapshot = append(snapshot, cb)
	}
	s.queue = append(s.queue, notification{value: value, listeners: snapshot})
	s.drainLocked()
}

// drainLocked delivers queued notifications in order. The caller holds the
// lock; it is released around callbacks. If a drain is already running on
// another frame, the queued entry is left for it, which is what keeps a
// reentrant setter call causally ordered.
func (s *stateCell) drainLocked() {
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.notifying = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		n := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		for _, cb := range n.listeners {
			cb(n.value)
		}
	}
}
