package entity

import (
	"math"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON value kinds a record may hold.
// Only Null, String, Int, Float, Bool, Array and Object implement it.
type Value interface {
	entityValue()
}

// Null represents a JSON null.
type Null struct{}

func (Null) entityValue() {}

// String represents a string value.
type String string

func (String) entityValue() {}

// Int represents an integral number.
type Int int64

func (Int) entityValue() {}

// Float represents a non-integral number (crop boxes, aspect ratios).
type Float float64

func (Float) entityValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) entityValue() {}

// Array represents an ordered list of values.
type Array []Value

func (Array) entityValue() {}

// Object represents a nested mapping (e.g. a photo's crop_box).
type Object map[string]Value

func (Object) entityValue() {}

// SortedKeys returns the object keys in RFC 8785 order (UTF-16 code units).
func (o Object) SortedKeys() []string {
	return sortedKeys(o)
}

// Equal reports whether two values are structurally equal.
// Float NaN never equals itself; the API does not produce NaN.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		return ok && mapsEqual(av, bv)
	default:
		return false
	}
}

func mapsEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// FromAny converts decoded Go values (as produced by yaml.v3 or
// encoding/json with UseNumber) into a Value.
func FromAny(v any) (Value, error) {
	return fromAny(v)
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) &&
		f >= math.MinInt64 && f <= math.MaxInt64
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as RFC 8785
// requires. Plain string comparison orders by UTF-8 bytes, which differs
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
