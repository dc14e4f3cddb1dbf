package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/internal/helpers"
	"github.com/robbyt/go-evalwrap/machines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
)

// evalCounter numbers evaluations for log correlation only.
var evalCounter atomic.Uint64

// Evaluator runs Starlark source in a fresh interpreter and scope on every call. It keeps no
// state between calls and is safe for concurrent use.
type Evaluator struct {
	invoker bridge.Invoker

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Starlark Evaluator. invoker serves subinvoke calls and may be nil.
func New(handler slog.Handler, invoker bridge.Invoker) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "starlark", "Evaluator")
	return &Evaluator{
		invoker:    invoker,
		logHandler: handler,
		logger:     logger,
	}
}

func (e *Evaluator) String() string {
	return "starlark.Evaluator"
}

// Eval runs src with no injected globals.
func (e *Evaluator) Eval(ctx context.Context, src string) (*data.EvalResult, error) {
	return e.EvalWithGlobals(ctx, src, nil)
}

// EvalWithGlobals runs src with globals injected into its scope. Script failures, including
// abort and syntax errors, come back as a failed EvalResult. The error return is reserved for
// unrecoverable conditions: data.ErrUnsupportedValueShape and bridge.ErrScopeSetup.
func (e *Evaluator) EvalWithGlobals(
	ctx context.Context,
	src string,
	globals []data.GlobalVar,
) (*data.EvalResult, error) {
	if e == nil {
		return nil, ErrNilEvaluator
	}
	evalID := fmt.Sprintf("eval-%d", evalCounter.Add(1))
	logger := e.logger.WithGroup("Eval").With("evalID", evalID)

	// Initializing: convert every global before touching the interpreter.
	staged, err := stageGlobals(globals)
	if err != nil {
		logger.ErrorContext(ctx, "failed to convert globals", "error", err)
		return nil, err
	}

	// ScopeReady
	sc := newScope(bridge.NewHost(e.logHandler, e.invoker), logger)
	predeclared, err := sc.build(staged)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build scope", "error", err)
		return nil, err
	}

	// Executing
	startTime := time.Now()
	value, runErr := e.exec(ctx, evalID, src, predeclared, sc)
	logger = logger.With("execTime", time.Since(startTime))

	if sc.fatal != nil {
		logger.ErrorContext(ctx, "evaluation hit an unrecoverable bridge failure", "error", sc.fatal)
		return nil, sc.fatal
	}
	if sc.abort != nil {
		logger.DebugContext(ctx, "evaluation aborted", "message", sc.abort.Message)
		return data.Failed(bridge.FormatError(sc.abort)), nil
	}
	if runErr != nil {
		msg := bridge.FormatException(exceptionArgs(runErr))
		logger.DebugContext(ctx, "evaluation failed", "error", msg)
		return data.Failed(msg), nil
	}

	// Succeeded
	result, err := internal.ToValue(value)
	if err != nil {
		logger.ErrorContext(ctx, "failed to convert result", "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "evaluation complete", "kind", data.KindOf(result))
	return data.Succeeded(result), nil
}

// exec compiles and runs src on a new thread. Cancelling ctx cancels the thread.
func (e *Evaluator) exec(
	ctx context.Context,
	evalID string,
	src string,
	predeclared starlarkLib.StringDict,
	sc *scope,
) (starlarkLib.Value, error) {
	logger := sc.logger.WithGroup("exec")

	prog, err := compile(src, predeclared)
	if err != nil {
		return nil, err
	}

	thread := &starlarkLib.Thread{
		Name: evalID,
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
	thread.SetLocal(threadCtxKey, ctx)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	globals, err := prog.prog.Init(thread, predeclared)
	if err != nil {
		return nil, err
	}
	return prog.result(globals), nil
}

// stageGlobals normalizes and converts the injected globals. Any failure is unrecoverable.
func stageGlobals(globals []data.GlobalVar) (starlarkLib.StringDict, error) {
	normalized, err := data.NormalizeGlobals(globals)
	if err != nil {
		return nil, err
	}
	staged, err := internal.ToStringDict(normalized)
	if err != nil {
		return nil, err
	}
	return staged, nil
}
