package compose

import "reflect"

// identical reports whether two values are the same by reference identity.
// Pointer-shaped kinds compare by pointer, comparable kinds by ==, and
// everything else is never identical: two structurally equal but freshly
// allocated values do not deduplicate. This is the deliberate cheap-check
// tradeoff of the dedup rule, not a deep-equality guarantee.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	switch ta.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		if ta.Comparable() {
			return a == b
		}
		return false
	}
}
