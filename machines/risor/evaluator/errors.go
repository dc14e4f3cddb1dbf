package evaluator

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile risor script")
	ErrNilEvaluator  = errors.New("risor evaluator is nil")
)
