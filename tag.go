package compose

// Tag is a type-safe key for component metadata
type Tag[T any] struct {
	key string
}

// NewTag creates a new tag with the given key
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging)
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value from a component
func (t Tag[T]) Get(c Component) (T, bool) {
	val, ok := c.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGet retrieves the tag value or panics if not found
func (t Tag[T]) MustGet(c Component) T {
	val, ok := t.Get(c)
	if !ok {
		panic("tag " + t.key + " not found")
	}
	return val
}

// GetOrDefault retrieves the tag value or returns a default
func (t Tag[T]) GetOrDefault(c Component, defaultVal T) T {
	if val, ok := t.Get(c); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value on a component
func (t Tag[T]) Set(c Component, val T) {
	c.SetTag(t, val)
}

var nameTag = NewTag[string]("component.name")

// Name returns the predefined component-name tag
func Name() Tag[string] {
	return nameTag
}

// displayName returns the component's name tag or a schema-derived fallback
func displayName(c Component) string {
	if name, ok := nameTag.Get(c); ok {
		return name
	}
	keys := c.InputSchema().Keys()
	label := "component("
	for i, k := range keys {
		if i > 0 {
			label += ","
		}
		label += k
	}
	return label + ")"
}
