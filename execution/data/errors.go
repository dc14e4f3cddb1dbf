package data

import "errors"

// ErrUnsupportedValueShape is returned when a value has no representation in the JSON-like
// value model: non-string object keys, integers outside int64, non-finite floats, or types
// with no mapping at all.
var ErrUnsupportedValueShape = errors.New("unsupported value shape")

// ErrInvalidResult is returned when decoding an EvalResult that carries both or neither of
// the value and error fields.
var ErrInvalidResult = errors.New("invalid eval result")
