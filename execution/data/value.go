package data

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
)

// MaxDepth bounds container nesting during conversion, so self-referencing containers fail
// instead of recursing forever.
const MaxDepth = 1000

// Normalize maps a Go value onto the canonical Value shapes: nil, bool, int64, float64,
// string, []any and map[string]any. Sized integers, float32, json.Number, typed slices and
// string-keyed maps are accepted. Everything else fails with ErrUnsupportedValueShape.
func Normalize(v any) (any, error) {
	return normalize(v, 0)
}

func normalize(v any, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValueShape, MaxDepth)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		return fromUint64(uint64(val))
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return fromUint64(val)
	case float32:
		return finite(float64(val))
	case float64:
		return finite(val)
	case json.Number:
		return ParseNumber(val.String())
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalize(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalize(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: object key %v is %T, not string", ErrUnsupportedValueShape, k, k)
			}
			n, err := normalize(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	}

	return normalizeReflect(reflect.ValueOf(v), depth)
}

// normalizeReflect handles typed slices and maps, e.g. []string or map[string]int.
func normalizeReflect(rv reflect.Value, depth int) (any, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			n, err := normalize(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: object keys of type %s", ErrUnsupportedValueShape, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			n, err := normalize(iter.Value().Interface(), depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface(), depth)
	}
	if !rv.IsValid() {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValueShape, rv.Type())
}

// ParseNumber decodes a numeric literal, preferring an exact int64 and falling back to a
// finite float64.
func ParseNumber(literal string) (any, error) {
	n := json.Number(literal)
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: number literal %q: %w", ErrUnsupportedValueShape, literal, err)
	}
	return finite(f)
}

func fromUint64(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: integer %d overflows int64", ErrUnsupportedValueShape, u)
	}
	return int64(u), nil
}

func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v is not a finite number", ErrUnsupportedValueShape, f)
	}
	return f, nil
}

// Equal reports structural equality of two values after normalization. Object comparison
// ignores key order. Values that fail to normalize are never equal.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// SortedKeys returns the keys of an object in ascending byte order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
