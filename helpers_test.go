package compose

import (
	"sync"
	"testing"
	"time"
)

// collector records every value a subscription delivers and lets tests wait
// for asynchronous deliveries.
type collector struct {
	mu     sync.Mutex
	values []any
	signal chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 128)}
}

func (c *collector) cb(v any) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *collector) snapshot() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// waitFor blocks until at least n values have been collected
func (c *collector) waitFor(t *testing.T, n int) []any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if c.count() >= n {
			return c.snapshot()
		}
		select {
		case <-c.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d: %v", n, c.count(), c.snapshot())
		}
	}
}
