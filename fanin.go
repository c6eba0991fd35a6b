package compose

import (
	"fmt"
	"sort"
)

// ComposeAll wires one upstream component into each named input of into,
// folding single-wire Compose over the entries. Entries are processed in
// sorted key order so configuration errors are reproducible; the order does
// not affect the final schema or behavior since each wire covers an
// independent name. An empty mapping returns into unchanged.
func ComposeAll(into Component, wires map[string]Component) (Component, error) {
	if len(wires) == 0 {
		return into, nil
	}

	keys := make([]string, 0, len(wires))
	for k := range wires {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := into
	for _, key := range keys {
		wired, err := Compose(result, key, wires[key])
		if err != nil {
			return nil, fmt.Errorf("compose all: wiring %q: %w", key, err)
		}
		result = wired
	}
	return result, nil
}

// MustComposeAll is ComposeAll, panicking on configuration errors
func MustComposeAll(into Component, wires map[string]Component) Component {
	c, err := ComposeAll(into, wires)
	if err != nil {
		panic(err)
	}
	return c
}
