// Package starlark evaluates Starlark, a Python dialect, with the bridge functions and globals
// installed into a fresh scope on every call.
package starlark

import (
	"log/slog"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/machines/starlark/evaluator"
)

type Evaluator = evaluator.Evaluator

// NewEvaluator creates a Starlark evaluator. invoker serves subinvoke and may be nil.
func NewEvaluator(handler slog.Handler, invoker bridge.Invoker) *Evaluator {
	return evaluator.New(handler, invoker)
}
