package evaluator

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile starlark script")
	ErrNilEvaluator  = errors.New("starlark evaluator is nil")
)
