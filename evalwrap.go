// Package evalwrap evaluates untrusted script source in a fresh interpreter scope and returns
// either the value of the last expression or the error message the script raised.
//
// Scripts can call three host functions: subinvoke forwards a call to the configured
// Invoker, mock_subinvoke echoes its arguments without any I/O, and abort ends the script
// with a message. Starlark is the default machine; Risor is available through
// NewRisorEvaluator.
package evalwrap

import (
	"context"
	"sync"

	"github.com/robbyt/go-evalwrap/engine"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/machines"
	"github.com/robbyt/go-evalwrap/machines/starlark"
	"github.com/robbyt/go-evalwrap/machines/types"
	"github.com/robbyt/go-evalwrap/options"
)

// defaultEvaluator backs the package-level Eval functions.
var defaultEvaluator = sync.OnceValue(func() engine.Evaluator {
	return starlark.NewEvaluator(options.DefaultHandler(), nil)
})

// Eval runs src with the default Starlark evaluator and no injected globals.
func Eval(ctx context.Context, src string) (*data.EvalResult, error) {
	return defaultEvaluator().Eval(ctx, src)
}

// EvalWithGlobals runs src with the default Starlark evaluator and globals injected.
func EvalWithGlobals(ctx context.Context, src string, globals []data.GlobalVar) (*data.EvalResult, error) {
	return defaultEvaluator().EvalWithGlobals(ctx, src, globals)
}

// NewStarlarkEvaluator creates a new evaluator for Starlark scripts
func NewStarlarkEvaluator(opts ...options.Option) (engine.Evaluator, error) {
	return newEvaluator(types.Starlark, opts...)
}

// NewRisorEvaluator creates a new evaluator for Risor scripts
func NewRisorEvaluator(opts ...options.Option) (engine.Evaluator, error) {
	return newEvaluator(types.Risor, opts...)
}

// NewEvaluator creates an evaluator for the machine selected by options.WithMachineType,
// Starlark when none is given.
func NewEvaluator(opts ...options.Option) (engine.Evaluator, error) {
	return newEvaluator(types.Starlark, opts...)
}

func newEvaluator(machineType types.Type, opts ...options.Option) (engine.Evaluator, error) {
	cfg, err := options.New(machineType, opts...)
	if err != nil {
		return nil, err
	}
	return machines.NewEvaluator(cfg)
}
