package internal

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/robbyt/go-evalwrap/execution/data"
	starlarkLib "go.starlark.net/starlark"
)

// ToValue converts a Starlark value into the JSON-like value model. The checks run as a
// priority chain, first match wins: string, int, float, None, list/tuple, dict, and finally
// the truth value of anything else (bools, sets, functions, modules). Out-of-range ints,
// non-finite floats and non-string dict keys fail with data.ErrUnsupportedValueShape.
func ToValue(v starlarkLib.Value) (any, error) {
	return toValue(v, 0)
}

func toValue(v starlarkLib.Value, depth int) (any, error) {
	if depth > data.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", data.ErrUnsupportedValueShape, data.MaxDepth)
	}
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case starlarkLib.String:
		return string(val), nil
	case starlarkLib.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: integer %s overflows int64", data.ErrUnsupportedValueShape, val)
		}
		return i, nil
	case starlarkLib.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s is not a finite number", data.ErrUnsupportedValueShape, val)
		}
		return f, nil
	case starlarkLib.NoneType:
		return nil, nil
	case *starlarkLib.List:
		return sequenceToValue(val, depth)
	case starlarkLib.Tuple:
		return sequenceToValue(val, depth)
	case *starlarkLib.Dict:
		obj := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlarkLib.String)
			if !ok {
				return nil, fmt.Errorf(
					"%w: dict key %s is %s, not string",
					data.ErrUnsupportedValueShape, item[0], item[0].Type(),
				)
			}
			elem, err := toValue(item[1], depth+1)
			if err != nil {
				return nil, fmt.Errorf("dict value for %q: %w", string(key), err)
			}
			obj[string(key)] = elem
		}
		return obj, nil
	default:
		return bool(v.Truth()), nil
	}
}

func sequenceToValue(seq starlarkLib.Indexable, depth int) ([]any, error) {
	out := make([]any, 0, seq.Len())
	for i := range seq.Len() {
		elem, err := toValue(seq.Index(i), depth+1)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, elem)
	}
	return out, nil
}

// ToNative converts a value from the JSON-like model into a Starlark value. Integers stay
// exact; a json.Number literal becomes an int when it parses as one and a float otherwise.
// Dicts are built from the complete, key-sorted entry set.
func ToNative(v any) (starlarkLib.Value, error) {
	return toNative(v, 0)
}

func toNative(v any, depth int) (starlarkLib.Value, error) {
	if depth > data.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", data.ErrUnsupportedValueShape, data.MaxDepth)
	}

	switch val := v.(type) {
	case nil:
		return starlarkLib.None, nil
	case bool:
		return starlarkLib.Bool(val), nil
	case int:
		return starlarkLib.MakeInt(val), nil
	case int64:
		return starlarkLib.MakeInt64(val), nil
	case uint64:
		return starlarkLib.MakeUint64(val), nil
	case float64:
		return starlarkLib.Float(val), nil
	case json.Number:
		n, err := data.ParseNumber(val.String())
		if err != nil {
			return nil, err
		}
		return toNative(n, depth)
	case string:
		return starlarkLib.String(val), nil
	case []any:
		elems := make([]starlarkLib.Value, len(val))
		for i, elem := range val {
			sv, err := toNative(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = sv
		}
		return starlarkLib.NewList(elems), nil
	case map[string]any:
		keys := data.SortedKeys(val)
		entries := make([]starlarkLib.Tuple, 0, len(keys))
		for _, k := range keys {
			sv, err := toNative(val[k], depth+1)
			if err != nil {
				return nil, fmt.Errorf("dict value for %q: %w", k, err)
			}
			entries = append(entries, starlarkLib.Tuple{starlarkLib.String(k), sv})
		}
		dict := starlarkLib.NewDict(len(entries))
		for _, entry := range entries {
			if err := dict.SetKey(entry[0], entry[1]); err != nil {
				return nil, fmt.Errorf("failed to set dict key %s: %w", entry[0], err)
			}
		}
		return dict, nil
	default:
		n, err := data.Normalize(v)
		if err != nil {
			return nil, err
		}
		return toNative(n, depth)
	}
}

// ToStringDict converts staged globals into Starlark values keyed by name.
func ToStringDict(globals map[string]any) (starlarkLib.StringDict, error) {
	out := make(starlarkLib.StringDict, len(globals))
	for name, v := range globals {
		sv, err := ToNative(v)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
		out[name] = sv
	}
	return out, nil
}
