// Package risor evaluates Risor scripts with the bridge functions and globals installed on a
// fresh VM for every call.
package risor

import (
	"log/slog"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/machines/risor/evaluator"
)

type Evaluator = evaluator.Evaluator

// NewEvaluator creates a Risor evaluator. invoker serves subinvoke and may be nil.
func NewEvaluator(handler slog.Handler, invoker bridge.Invoker) *Evaluator {
	return evaluator.New(handler, invoker)
}
