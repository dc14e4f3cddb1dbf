package extism

import "errors"

var (
	ErrNoResolver     = errors.New("no module resolver configured")
	ErrContentNil     = errors.New("wasm content is nil")
	ErrCompileFailed  = errors.New("failed to compile wasm module")
	ErrMethodNotFound = errors.New("method not exported by wasm module")
	ErrNonZeroExit    = errors.New("wasm method returned non-zero exit code")
	ErrInvokerClosed  = errors.New("invoker is closed")
)
