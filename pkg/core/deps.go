package core

import (
	"math"
	"reflect"
)

// depsChanged reports whether next differs from prev. Lists of different
// length always differ.
func depsChanged(prev, next []any) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if !sameValue(prev[i], next[i]) {
			return true
		}
	}
	return false
}

// sameValue is the identity comparison used for dependencies and props.
// Comparable values use ==, except that NaN equals NaN. Funcs, maps,
// slices, channels and pointers compare by address; other values never
// match.
func sameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case float32:
		y := b.(float32)
		return x == y || (x != x && y != y)
	}
	if ta.Comparable() {
		// Structs and arrays holding non-comparable interface values panic.
		defer func() {
			if recover() != nil {
				same = false
			}
		}()
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Func, reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}
