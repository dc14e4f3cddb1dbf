package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	risorLib "github.com/risor-io/risor"
	rObj "github.com/risor-io/risor/object"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/internal/helpers"
	"github.com/robbyt/go-evalwrap/machines/risor/internal"
)

var evalCounter atomic.Uint64

// Evaluator runs Risor source on a fresh VM on every call. It is safe for concurrent use.
type Evaluator struct {
	invoker bridge.Invoker

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Risor Evaluator. invoker serves subinvoke calls and may be nil.
func New(handler slog.Handler, invoker bridge.Invoker) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "risor", "Evaluator")
	return &Evaluator{
		invoker:    invoker,
		logHandler: handler,
		logger:     logger,
	}
}

func (e *Evaluator) String() string {
	return "risor.Evaluator"
}

// Eval runs src with no injected globals.
func (e *Evaluator) Eval(ctx context.Context, src string) (*data.EvalResult, error) {
	return e.EvalWithGlobals(ctx, src, nil)
}

// EvalWithGlobals runs src with globals injected. The value of the last expression is the
// result. A script that returns an error value, raises one, or calls abort or fail produces a
// failed EvalResult. The error return is reserved for data.ErrUnsupportedValueShape and
// bridge.ErrScopeSetup.
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

	staged, err := stageGlobals(globals)
	if err != nil {
		logger.ErrorContext(ctx, "failed to convert globals", "error", err)
		return nil, err
	}

	sc := newScope(bridge.NewHost(e.logHandler, e.invoker), logger)
	vmGlobals, err := sc.build(staged)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build scope", "error", err)
		return nil, err
	}

	startTime := time.Now()
	obj, runErr := e.exec(ctx, src, vmGlobals)
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

	// an error value as the last expression fails the evaluation
	if errObj, ok := obj.(*rObj.Error); ok {
		msg := bridge.FormatException(exceptionArgs(errObj.Value()))
		logger.DebugContext(ctx, "script returned an error", "error", msg)
		return data.Failed(msg), nil
	}

	result, err := internal.ToValue(obj)
	if err != nil {
		logger.ErrorContext(ctx, "failed to convert result", "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "evaluation complete", "kind", data.KindOf(result))
	return data.Succeeded(result), nil
}

func (e *Evaluator) exec(ctx context.Context, src string, vmGlobals map[string]any) (rObj.Object, error) {
	if strings.TrimSpace(src) == "" {
		return rObj.Nil, nil
	}

	names := make([]string, 0, len(vmGlobals))
	for name := range vmGlobals {
		names = append(names, name)
	}
	bc, err := compile(ctx, src, names)
	if err != nil {
		return nil, err
	}
	return risorLib.EvalCode(ctx, bc, risorLib.WithGlobals(vmGlobals))
}

func stageGlobals(globals []data.GlobalVar) (map[string]any, error) {
	normalized, err := data.NormalizeGlobals(globals)
	if err != nil {
		return nil, err
	}
	return internal.ToGlobals(normalized)
}
