package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/machines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
)

// threadCtxKey is the thread-local slot holding the evaluation context.
const threadCtxKey = "evalwrap.context"

// scope is the execution scope of one evaluation: builtins, bridge functions and staged
// globals. It also records the bridge outcomes that end an evaluation regardless of what the
// interpreter reports.
type scope struct {
	host   *bridge.Host
	logger *slog.Logger

	// abort is set once the script calls abort.
	abort *bridge.AbortError
	// fatal is set when a bridge function hit an unrecoverable conversion failure.
	fatal error
}

func newScope(host *bridge.Host, logger *slog.Logger) *scope {
	return &scope{
		host:   host,
		logger: logger,
	}
}

// build returns the predeclared dictionary: the Starlark universe and modules, then every
// bridge function under all of its names, then the staged globals, which may shadow either.
func (s *scope) build(globals starlarkLib.StringDict) (starlarkLib.StringDict, error) {
	predeclared := internal.StarlarkModules()

	for _, name := range bridge.Names() {
		fn, err := s.builtin(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bridge.ErrScopeSetup, err)
		}
		predeclared[name] = fn
	}

	for name, v := range globals {
		if name == "" {
			return nil, fmt.Errorf("%w: global with empty name", bridge.ErrScopeSetup)
		}
		predeclared[name] = v
	}
	return predeclared, nil
}

func (s *scope) builtin(name string) (*starlarkLib.Builtin, error) {
	switch bridge.Aliases[name] {
	case bridge.Subinvoke:
		return starlarkLib.NewBuiltin(name, s.subinvoke), nil
	case bridge.MockSubinvoke:
		return starlarkLib.NewBuiltin(name, s.mockSubinvoke), nil
	case bridge.Abort:
		return starlarkLib.NewBuiltin(name, s.abortFn), nil
	case bridge.Fail:
		return starlarkLib.NewBuiltin(name, s.fail), nil
	default:
		return nil, fmt.Errorf("no bridge function for %q", name)
	}
}

// raiseFatal records err and returns it so the interpreter stops.
func (s *scope) raiseFatal(err error) error {
	fatal := bridge.Fatal(err)
	if s.fatal == nil {
		s.fatal = fatal
	}
	s.logger.Error("unrecoverable bridge failure", "error", err)
	return fatal
}

func (s *scope) subinvoke(
	thread *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	uri, method, payload, err := s.unpackInvokeArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	resp, err := s.host.Subinvoke(threadContext(thread), uri, method, payload)
	if err != nil {
		return nil, s.raiseFatal(fmt.Errorf("%s: %w", b.Name(), err))
	}
	out, err := internal.ToNative(resp)
	if err != nil {
		return nil, s.raiseFatal(fmt.Errorf("%s: %w", b.Name(), err))
	}
	return out, nil
}

func (s *scope) mockSubinvoke(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	uri, method, payload, err := s.unpackInvokeArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	resp, err := s.host.MockSubinvoke(uri, method, payload)
	if err != nil {
		return nil, s.raiseFatal(fmt.Errorf("%s: %w", b.Name(), err))
	}
	out, err := internal.ToNative(resp)
	if err != nil {
		return nil, s.raiseFatal(fmt.Errorf("%s: %w", b.Name(), err))
	}
	return out, nil
}

func (s *scope) abortFn(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: got %d arguments, want 1", b.Name(), len(args))
	}

	abort := s.host.Abort(coerceString(args[0]))
	if s.abort == nil {
		s.abort = abort
	}
	return nil, abort
}

func (s *scope) fail(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}

	exArgs := make([]any, len(args))
	for i, arg := range args {
		if str, ok := arg.(starlarkLib.String); ok {
			exArgs[i] = string(str)
			continue
		}
		exArgs[i] = arg
	}
	return nil, &bridge.ScriptError{Args: exArgs}
}

// unpackInvokeArgs reads (uri, method, args). uri and method are coerced to strings; args
// goes through the Value Bridge, and a failure there is fatal.
func (s *scope) unpackInvokeArgs(
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (string, string, any, error) {
	if len(kwargs) > 0 {
		return "", "", nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if len(args) != 3 {
		return "", "", nil, fmt.Errorf("%s: got %d arguments, want 3", b.Name(), len(args))
	}

	payload, err := internal.ToValue(args[2])
	if err != nil {
		return "", "", nil, s.raiseFatal(fmt.Errorf("%s: %w", b.Name(), err))
	}
	return coerceString(args[0]), coerceString(args[1]), payload, nil
}

// coerceString is str(v): strings as-is, anything else in printed form.
func coerceString(v starlarkLib.Value) string {
	if s, ok := starlarkLib.AsString(v); ok {
		return s
	}
	return v.String()
}

func threadContext(thread *starlarkLib.Thread) context.Context {
	if thread != nil {
		if ctx, ok := thread.Local(threadCtxKey).(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

// exceptionArgs extracts the positional arguments of a raised Starlark error.
func exceptionArgs(err error) ([]any, bool) {
	var abort *bridge.AbortError
	var scriptErr *bridge.ScriptError
	if errors.As(err, &abort) || errors.As(err, &scriptErr) {
		return bridge.ExceptionArgs(err)
	}

	var evalErr *starlarkLib.EvalError
	if errors.As(err, &evalErr) {
		return []any{evalErr.Msg}, true
	}
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return []any{syntaxErr.Error()}, true
	}
	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) {
		return []any{resolveErrs.Error()}, true
	}
	return bridge.ExceptionArgs(err)
}
