// Package wrap exposes the evaluator as a module with msgpack-encoded methods, the shape a
// wrap host calls across a module boundary.
package wrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-evalwrap/engine"
	"github.com/robbyt/go-evalwrap/execution/codec"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/internal/helpers"
)

// Method names served by Module.Invoke.
const (
	MethodEval            = "eval"
	MethodEvalWithGlobals = "evalWithGlobals"
)

var (
	// ErrUnknownMethod is returned by Invoke for a method name other than eval or evalWithGlobals.
	ErrUnknownMethod = errors.New("unknown module method")
	// ErrDecodeArgs is returned by Invoke when the payload is not a valid argument record.
	ErrDecodeArgs = errors.New("failed to decode method arguments")
	// ErrNilEvaluator is returned by NewModule when no evaluator is given.
	ErrNilEvaluator = errors.New("evaluator is nil")
)

// ArgsEval is the argument record of the eval method.
type ArgsEval struct {
	Src string `msgpack:"src" json:"src"`
}

// ArgsEvalWithGlobals is the argument record of the evalWithGlobals method.
type ArgsEvalWithGlobals struct {
	Src     string           `msgpack:"src" json:"src"`
	Globals []data.GlobalVar `msgpack:"globals" json:"globals"`
}

// Module dispatches msgpack method calls to an evaluator.
type Module struct {
	evaluator engine.Evaluator
	logger    *slog.Logger
}

// NewModule creates a Module serving e.
func NewModule(e engine.Evaluator, handler slog.Handler) (*Module, error) {
	if e == nil {
		return nil, ErrNilEvaluator
	}
	_, logger := helpers.SetupLogger(handler, "wrap", "Module")
	return &Module{evaluator: e, logger: logger}, nil
}

// Invoke decodes payload as the argument record of method, runs it and returns the msgpack
// encoded EvalResult. Script failures are inside the result; the error return carries unknown
// methods, undecodable payloads and unrecoverable engine failures.
func (m *Module) Invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	logger := m.logger.WithGroup("Invoke").With("method", method)

	var (
		result *data.EvalResult
		err    error
	)
	switch method {
	case MethodEval:
		var args ArgsEval
		if err := codec.Unmarshal(payload, &args); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeArgs, err)
		}
		result, err = m.evaluator.Eval(ctx, args.Src)
	case MethodEvalWithGlobals:
		var args ArgsEvalWithGlobals
		if err := codec.Unmarshal(payload, &args); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeArgs, err)
		}
		result, err = m.evaluator.EvalWithGlobals(ctx, args.Src, args.Globals)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err != nil {
		logger.ErrorContext(ctx, "evaluation failed", "error", err)
		return nil, err
	}

	out, err := codec.Marshal(result)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "method complete", "success", result.IsSuccess())
	return out, nil
}

// MsgpackToJSON renders a msgpack payload as compact JSON.
func MsgpackToJSON(b []byte) (string, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return "", err
	}
	return data.EncodeJSON(v)
}

// JSONToMsgpack encodes JSON text as msgpack.
func JSONToMsgpack(s string) ([]byte, error) {
	v, err := data.DecodeJSON([]byte(s))
	if err != nil {
		return nil, err
	}
	return codec.Encode(v)
}
