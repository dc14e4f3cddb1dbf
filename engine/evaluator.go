package engine

import (
	"context"

	"github.com/robbyt/go-evalwrap/execution/data"
)

// Evaluator is the interface for the generic script evaluator.
type Evaluator interface {
	// Eval runs src in a fresh scope holding only the builtins and the bridge functions.
	Eval(ctx context.Context, src string) (*data.EvalResult, error)

	// EvalWithGlobals runs src with globals injected into the scope before execution.
	EvalWithGlobals(ctx context.Context, src string, globals []data.GlobalVar) (*data.EvalResult, error)
}
