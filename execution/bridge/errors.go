package bridge

import (
	"errors"
	"strings"

	"github.com/robbyt/go-evalwrap/execution/data"
)

var (
	// ErrScopeSetup is returned when builtins, bridge functions, or globals cannot be installed
	// into a fresh execution scope.
	ErrScopeSetup = errors.New("failed to set up execution scope")

	// ErrNoInvoker is the transport failure reported by subinvoke when no Invoker is configured.
	ErrNoInvoker = errors.New("no invoker configured")

	// ErrEncodeArgs is returned when subinvoke arguments cannot be put on the wire.
	ErrEncodeArgs = errors.New("failed to encode subinvoke arguments")
)

// AbortError is raised by the abort bridge function. It cannot be caught by the script and
// ends the evaluation as a failure carrying Message.
type AbortError struct {
	Message string
}

func (e *AbortError) Error() string {
	return "script aborted: " + e.Message
}

// ScriptError is raised by the fail builtin and carries its positional arguments. String
// arguments are Go strings; any other argument keeps its native interpreter value.
type ScriptError struct {
	Args []any
}

func (e *ScriptError) Error() string {
	return FormatException(e.Args, true)
}

// FatalError marks a failure inside a bridge function that must not be reported as a script
// error, such as a Value Bridge conversion of an unsupported shape.
type FatalError struct {
	Err error
}

// Fatal wraps err as a FatalError. A nil error stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Err: err}
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// ExceptionArgs returns the positional arguments of a raised error: the message of an
// AbortError, the args of a ScriptError, or the error text for anything else.
func ExceptionArgs(err error) ([]any, bool) {
	if err == nil {
		return nil, false
	}
	var abort *AbortError
	if errors.As(err, &abort) {
		return []any{abort.Message}, true
	}
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		if scriptErr.Args == nil {
			return nil, false
		}
		return scriptErr.Args, true
	}
	return []any{strings.TrimSpace(err.Error())}, true
}

// IsFatal reports whether an error returned by an evaluator belongs to the unrecoverable tier.
func IsFatal(err error) bool {
	return errors.Is(err, data.ErrUnsupportedValueShape) || errors.Is(err, ErrScopeSetup)
}
