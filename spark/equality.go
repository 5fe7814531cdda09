package spark

import (
	"math"
	"reflect"
)

// EqualsFunc decides whether a write or recomputation actually changed a
// value. Returning true suppresses propagation.
type EqualsFunc func(a, b any) bool

// Equals is the strict-identity predicate. Maps, slices and functions
// compare by reference (the pointer behind the value); other uncomparable
// dynamic types never compare equal.
func Equals(a, b any) bool {
	return identical(a, b)
}

// SafeEquals treats NaN as equal to NaN and never reports reference types
// (maps, slices, functions, pointers to mutable state) as equal, so writes
// of mutated objects always propagate.
func SafeEquals(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			if math.IsNaN(fa) && math.IsNaN(fb) {
				return true
			}
			return fa == fb && reflect.TypeOf(a) == reflect.TypeOf(b)
		}
		return false
	}
	if isReference(a) || isReference(b) {
		return false
	}
	return identical(a, b)
}

// immutableSafeEquals is SafeEquals for components marked immutable:
// reference identity is trusted, so re-setting the same object is a no-op.
func immutableSafeEquals(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			if math.IsNaN(fa) && math.IsNaN(fb) {
				return true
			}
		}
	}
	return identical(a, b)
}

func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		// comparing would panic; maps, slices and funcs are identical when
		// they share a pointer, any other uncomparable value never is
		if ta.Kind() == reflect.Map || ta.Kind() == reflect.Slice || ta.Kind() == reflect.Func {
			va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
			return va.Pointer() == vb.Pointer()
		}
		return false
	}
	return a == b
}

func isReference(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Ptr, reflect.Chan, reflect.Interface, reflect.Struct:
		return true
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
