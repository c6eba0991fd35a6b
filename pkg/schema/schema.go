// Package schema provides the type descriptors and validation used at the
// boundaries of a composed dataflow graph. A Schema validates a value and
// returns the validated (possibly coerced) form, or a *ValidationError
// naming the offending path. The composition core treats this package as an
// opaque capability: it only ever calls Validate and Equal.
package schema

import (
	"fmt"
	"reflect"
)

// ValidationError represents a validation error
type ValidationError struct {
	Message string
	Path    []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at path %v", e.Message, e.Path)
	}
	return e.Message
}

// Schema defines validation rules
type Schema interface {
	// Validate validates a value against the schema
	Validate(value any) (any, error)
}

// Equal reports whether two schemas describe the same underlying type.
// Two schemas are equal when they are the same instance or when they are
// structurally identical descriptors of the same concrete kind. Used by the
// compose merge rule: an input name shared between two components must be
// declared with equal schemas on both sides.
func Equal(a, b Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// StringSchema validates strings
type StringSchema struct {
	MinLength int
	MaxLength int
}

// Validate validates a string
func (s *StringSchema) Validate(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, &ValidationError{
			Message: fmt.Sprintf("value is not a string (got %T)", value),
		}
	}

	if s.MinLength > 0 && len(str) < s.MinLength {
		return nil, &ValidationError{
			Message: fmt.Sprintf("string length %d is less than minimum length %d", len(str), s.MinLength),
		}
	}

	if s.MaxLength > 0 && len(str) > s.MaxLength {
		return nil, &ValidationError{
			Message: fmt.Sprintf("string length %d is greater than maximum length %d", len(str), s.MaxLength),
		}
	}

	return str, nil
}

// NumberSchema validates numbers, coercing every numeric kind to float64
type NumberSchema struct {
	Min      float64
	Max      float64
	Positive bool
	Integer  bool
}

// Validate validates a number
func (s *NumberSchema) Validate(value any) (any, error) {
	var num float64

	switch v := value.(type) {
	case int:
		num = float64(v)
	case int8:
		num = float64(v)
	case int16:
		num = float64(v)
	case int32:
		num = float64(v)
	case int64:
		num = float64(v)
	case uint:
		num = float64(v)
	case uint8:
		num = float64(v)
	case uint16:
		num = float64(v)
	case uint32:
		num = float64(v)
	case uint64:
		num = float64(v)
	case float32:
		num = float64(v)
	case float64:
		num = v
	default:
		return nil, &ValidationError{
			Message: fmt.Sprintf("value is not a number (got %T)", value),
		}
	}

	if s.Min != 0 && num < s.Min {
		return nil, &ValidationError{
			Message: fmt.Sprintf("number %f is less than minimum %f", num, s.Min),
		}
	}

	if s.Max != 0 && num > s.Max {
		return nil, &ValidationError{
			Message: fmt.Sprintf("number %f is greater than maximum %f", num, s.Max),
		}
	}

	if s.Positive && num <= 0 {
		return nil, &ValidationError{
			Message: "number must be positive",
		}
	}

	if s.Integer && float64(int64(num)) != num {
		return nil, &ValidationError{
			Message: "number must be an integer",
		}
	}

	return num, nil
}

// BooleanSchema validates booleans
type BooleanSchema struct{}

// Validate validates a boolean
func (s *BooleanSchema) Validate(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, &ValidationError{
			Message: fmt.Sprintf("value is not a boolean (got %T)", value),
		}
	}

	return b, nil
}

// ArraySchema validates slices, applying ItemSchema to every element
type ArraySchema struct {
	ItemSchema Schema
	MinItems   int
	MaxItems   int
}

// Validate validates an array
func (s *ArraySchema) Validate(value any) (any, error) {
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return nil, &ValidationError{
			Message: fmt.Sprintf("value is not an array (got %T)", value),
		}
	}

	length := val.Len()

	if s.MinItems > 0 && length < s.MinItems {
		return nil, &ValidationError{
			Message: fmt.Sprintf("array length %d is less than minimum length %d", length, s.MinItems),
		}
	}

	if s.MaxItems > 0 && length > s.MaxItems {
		return nil, &ValidationError{
			Message: fmt.Sprintf("array length %d is greater than maximum length %d", length, s.MaxItems),
		}
	}

	if s.ItemSchema == nil {
		return value, nil
	}

	for i := 0; i < length; i++ {
		if _, err := s.ItemSchema.Validate(val.Index(i).Interface()); err != nil {
			if valErr, ok := err.(*ValidationError); ok {
				valErr.Path = append([]string{fmt.Sprintf("[%d]", i)}, valErr.Path...)
			}
			return nil, err
		}
	}

	return value, nil
}

// ObjectSchema validates map[string]any values field by field
type ObjectSchema struct {
	Properties map[string]Schema
	Required   []string
}

// Validate validates an object
func (s *ObjectSchema) Validate(value any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ValidationError{
			Message: fmt.Sprintf("value is not an object (got %T)", value),
		}
	}

	for _, req := range s.Required {
		if _, present := obj[req]; !present {
			return nil, &ValidationError{
				Message: fmt.Sprintf("required property %s is missing", req),
			}
		}
	}

	result := make(map[string]any, len(obj))
	for k, v := range obj {
		result[k] = v
	}

	for key, propSchema := range s.Properties {
		propVal, present := obj[key]
		if !present {
			continue
		}
		validated, err := propSchema.Validate(propVal)
		if err != nil {
			if valErr, ok := err.(*ValidationError); ok {
				valErr.Path = append([]string{key}, valErr.Path...)
			}
			return nil, err
		}
		result[key] = validated
	}

	return result, nil
}

// TypedSchema validates that a value's dynamic type is exactly T.
// This is the workhorse descriptor for Go values that have no structural
// constraints beyond their type.
type TypedSchema[T any] struct{}

// Validate validates the value's dynamic type
func (s *TypedSchema[T]) Validate(value any) (any, error) {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return nil, &ValidationError{
			Message: fmt.Sprintf("expected %T, got %T", zero, value),
		}
	}
	return typed, nil
}

// AnySchema accepts every value
type AnySchema struct{}

// Validate validates a value against the schema
func (s *AnySchema) Validate(value any) (any, error) {
	return value, nil
}

// String creates a new string schema
func String() *StringSchema {
	return &StringSchema{}
}

// Number creates a new number schema
func Number() *NumberSchema {
	return &NumberSchema{}
}

// Boolean creates a new boolean schema
func Boolean() *BooleanSchema {
	return &BooleanSchema{}
}

// Array creates a new array schema
func Array(itemSchema Schema) *ArraySchema {
	return &ArraySchema{
		ItemSchema: itemSchema,
	}
}

// Object creates a new object schema
func Object(properties map[string]Schema) *ObjectSchema {
	return &ObjectSchema{
		Properties: properties,
	}
}

// Typed creates a schema that asserts the value's dynamic type is T
func Typed[T any]() Schema {
	return &TypedSchema[T]{}
}

// Any creates a schema that accepts every value
func Any() Schema {
	return &AnySchema{}
}
