package internal

import (
	"encoding/json"
	"fmt"
	"math"

	rObj "github.com/risor-io/risor/object"

	"github.com/robbyt/go-evalwrap/execution/data"
)

// ToValue converts a Risor object into the JSON-like value model. Objects outside nil, int,
// float, string, list and map become their truth value. Non-finite floats fail with
// data.ErrUnsupportedValueShape.
func ToValue(obj rObj.Object) (any, error) {
	return toValue(obj, 0)
}

func toValue(obj rObj.Object, depth int) (any, error) {
	if depth > data.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", data.ErrUnsupportedValueShape, data.MaxDepth)
	}
	if obj == nil {
		return nil, nil
	}

	switch val := obj.(type) {
	case *rObj.String:
		return val.Value(), nil
	case *rObj.Int:
		return val.Value(), nil
	case *rObj.Float:
		f := val.Value()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v is not a finite number", data.ErrUnsupportedValueShape, f)
		}
		return f, nil
	case *rObj.NilType:
		return nil, nil
	case *rObj.List:
		items := val.Value()
		out := make([]any, 0, len(items))
		for i, item := range items {
			elem, err := toValue(item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, elem)
		}
		return out, nil
	case *rObj.Map:
		items := val.Value()
		out := make(map[string]any, len(items))
		for k, item := range items {
			elem, err := toValue(item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("map value for %q: %w", k, err)
			}
			out[k] = elem
		}
		return out, nil
	default:
		return obj.IsTruthy(), nil
	}
}

// ToNative converts a value from the JSON-like model into a Risor object.
func ToNative(v any) (rObj.Object, error) {
	return toNative(v, 0)
}

func toNative(v any, depth int) (rObj.Object, error) {
	if depth > data.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", data.ErrUnsupportedValueShape, data.MaxDepth)
	}

	switch val := v.(type) {
	case nil:
		return rObj.Nil, nil
	case bool:
		return rObj.NewBool(val), nil
	case int:
		return rObj.NewInt(int64(val)), nil
	case int64:
		return rObj.NewInt(val), nil
	case float64:
		return rObj.NewFloat(val), nil
	case json.Number:
		n, err := data.ParseNumber(val.String())
		if err != nil {
			return nil, err
		}
		return toNative(n, depth)
	case string:
		return rObj.NewString(val), nil
	case []any:
		items := make([]rObj.Object, len(val))
		for i, elem := range val {
			obj, err := toNative(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = obj
		}
		return rObj.NewList(items), nil
	case map[string]any:
		items := make(map[string]rObj.Object, len(val))
		for _, k := range data.SortedKeys(val) {
			obj, err := toNative(val[k], depth+1)
			if err != nil {
				return nil, fmt.Errorf("map value for %q: %w", k, err)
			}
			items[k] = obj
		}
		return rObj.NewMap(items), nil
	default:
		n, err := data.Normalize(v)
		if err != nil {
			return nil, err
		}
		return toNative(n, depth)
	}
}

// ToGlobals converts staged globals into Risor objects keyed by name.
func ToGlobals(globals map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(globals))
	for name, v := range globals {
		obj, err := ToNative(v)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
		out[name] = obj
	}
	return out, nil
}
