package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	rObj "github.com/risor-io/risor/object"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/machines/risor/internal"
)

// scope is the execution scope of one evaluation. Bridge outcomes that must end the
// evaluation are recorded here, since a Risor try block can swallow a raised error.
type scope struct {
	host   *bridge.Host
	logger *slog.Logger

	abort *bridge.AbortError
	fatal error
}

func newScope(host *bridge.Host, logger *slog.Logger) *scope {
	return &scope{
		host:   host,
		logger: logger,
	}
}

// build returns the globals handed to the VM: every bridge function under all of its names,
// then the staged globals, which may shadow them.
func (s *scope) build(globals map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(globals)+len(bridge.Aliases))
	for _, name := range bridge.Names() {
		fn, err := s.builtin(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bridge.ErrScopeSetup, err)
		}
		out[name] = fn
	}

	for name, v := range globals {
		if name == "" {
			return nil, fmt.Errorf("%w: global with empty name", bridge.ErrScopeSetup)
		}
		out[name] = v
	}
	return out, nil
}

func (s *scope) builtin(name string) (*rObj.Builtin, error) {
	switch bridge.Aliases[name] {
	case bridge.Subinvoke:
		return rObj.NewBuiltin(name, s.subinvoke(name)), nil
	case bridge.MockSubinvoke:
		return rObj.NewBuiltin(name, s.mockSubinvoke(name)), nil
	case bridge.Abort:
		return rObj.NewBuiltin(name, s.abortFn(name)), nil
	case bridge.Fail:
		return rObj.NewBuiltin(name, s.fail), nil
	default:
		return nil, fmt.Errorf("no bridge function for %q", name)
	}
}

func (s *scope) raiseFatal(err error) *rObj.Error {
	fatal := bridge.Fatal(err)
	if s.fatal == nil {
		s.fatal = fatal
	}
	s.logger.Error("unrecoverable bridge failure", "error", err)
	return rObj.NewError(fatal)
}

func (s *scope) subinvoke(name string) rObj.BuiltinFunction {
	return func(ctx context.Context, args ...rObj.Object) rObj.Object {
		uri, method, payload, errObj := s.unpackInvokeArgs(name, args)
		if errObj != nil {
			return errObj
		}

		resp, err := s.host.Subinvoke(ctx, uri, method, payload)
		if err != nil {
			return s.raiseFatal(fmt.Errorf("%s: %w", name, err))
		}
		out, err := internal.ToNative(resp)
		if err != nil {
			return s.raiseFatal(fmt.Errorf("%s: %w", name, err))
		}
		return out
	}
}

func (s *scope) mockSubinvoke(name string) rObj.BuiltinFunction {
	return func(_ context.Context, args ...rObj.Object) rObj.Object {
		uri, method, payload, errObj := s.unpackInvokeArgs(name, args)
		if errObj != nil {
			return errObj
		}

		resp, err := s.host.MockSubinvoke(uri, method, payload)
		if err != nil {
			return s.raiseFatal(fmt.Errorf("%s: %w", name, err))
		}
		out, err := internal.ToNative(resp)
		if err != nil {
			return s.raiseFatal(fmt.Errorf("%s: %w", name, err))
		}
		return out
	}
}

func (s *scope) abortFn(name string) rObj.BuiltinFunction {
	return func(_ context.Context, args ...rObj.Object) rObj.Object {
		if len(args) != 1 {
			return rObj.NewError(fmt.Errorf("%s: got %d arguments, want 1", name, len(args)))
		}
		abort := s.host.Abort(coerceString(args[0]))
		if s.abort == nil {
			s.abort = abort
		}
		return rObj.NewError(abort)
	}
}

func (s *scope) fail(_ context.Context, args ...rObj.Object) rObj.Object {
	exArgs := make([]any, len(args))
	for i, arg := range args {
		if str, ok := arg.(*rObj.String); ok {
			exArgs[i] = str.Value()
			continue
		}
		exArgs[i] = arg
	}
	return rObj.NewError(&bridge.ScriptError{Args: exArgs})
}

func (s *scope) unpackInvokeArgs(name string, args []rObj.Object) (string, string, any, *rObj.Error) {
	if len(args) != 3 {
		return "", "", nil, rObj.NewError(fmt.Errorf("%s: got %d arguments, want 3", name, len(args)))
	}
	payload, err := internal.ToValue(args[2])
	if err != nil {
		return "", "", nil, s.raiseFatal(fmt.Errorf("%s: %w", name, err))
	}
	return coerceString(args[0]), coerceString(args[1]), payload, nil
}

func coerceString(obj rObj.Object) string {
	if obj == nil {
		return "nil"
	}
	if s, ok := obj.(*rObj.String); ok {
		return s.Value()
	}
	return obj.Inspect()
}

// exceptionArgs extracts the positional arguments of an error raised by Risor.
func exceptionArgs(err error) ([]any, bool) {
	var abort *bridge.AbortError
	var scriptErr *bridge.ScriptError
	if errors.As(err, &abort) || errors.As(err, &scriptErr) {
		return bridge.ExceptionArgs(err)
	}
	if msg, ok := friendlyMessage(err); ok {
		return []any{msg}, true
	}
	return bridge.ExceptionArgs(err)
}
