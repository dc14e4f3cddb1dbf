package data

import (
	"errors"
	"fmt"
)

// GlobalVar is a named value injected into the execution scope before the script runs.
type GlobalVar struct {
	Name  string `msgpack:"name" json:"name"`
	Value any    `msgpack:"value" json:"value"`
}

// GlobalsFromMap builds a GlobalVar list ordered by name.
func GlobalsFromMap(m map[string]any) []GlobalVar {
	globals := make([]GlobalVar, 0, len(m))
	for _, k := range SortedKeys(m) {
		globals = append(globals, GlobalVar{Name: k, Value: m[k]})
	}
	return globals
}

// NormalizeGlobals normalizes every global value. All failures are reported together. When a
// name repeats, the later entry wins. Names are not validated here; that is up to the scope.
func NormalizeGlobals(globals []GlobalVar) (map[string]any, error) {
	staged := make(map[string]any, len(globals))
	errz := make([]error, 0)
	for _, g := range globals {
		v, err := Normalize(g.Value)
		if err != nil {
			errz = append(errz, fmt.Errorf("global %q: %w", g.Name, err))
			continue
		}
		staged[g.Name] = v
	}
	if len(errz) > 0 {
		return nil, errors.Join(errz...)
	}
	return staged, nil
}
