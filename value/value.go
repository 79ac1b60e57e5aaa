// Package value holds the semi-structured tree exchanged by every engine: null,
// boolean, number, string, array and object.
//
// A Value is a plain Go value: nil, bool, float64 (other numeric types are
// accepted on input), string, []any, Object or map[string]any. Objects built
// by this module are [Object], which keeps insertion order for serialization.
// Engines never mutate a Value they receive; they build new ones.
package value

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Kind is the variant of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// KindOf classifies v. Go values outside the tree domain are KindInvalid.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case Object, map[string]any:
		return KindObject
	case *Object:
		if x == nil {
			return KindNull
		}
		return KindObject
	}
	return KindInvalid
}

// AsNumber coerces a numeric Value to float64. It reports false for every
// other variant, including numeric-looking strings.
func AsNumber(v any) (float64, bool) {
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
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// AsArray returns the elements of an array Value.
func AsArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// Clone returns a deep copy of v sharing no mutable state with it.
func Clone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("clone %s value: %w", KindOf(v), err)
	}
	return c, nil
}
