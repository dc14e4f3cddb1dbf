// Package bridge holds the host side of the functions a running script can call: forwarding a
// call to the host transport, the mock forwarding call, and abort. Each interpreter machine
// wraps these in its own native callables.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/robbyt/go-evalwrap/execution/codec"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/internal/helpers"
)

// Names of the functions installed into every execution scope.
const (
	Subinvoke     = "subinvoke"
	MockSubinvoke = "mock_subinvoke"
	Abort         = "abort"
	Fail          = "fail"
)

// Aliases maps every installed name to the bridge function it calls. The double-underscore
// names are the ones scripts written for the wrap module use.
var Aliases = map[string]string{
	Subinvoke:          Subinvoke,
	MockSubinvoke:      MockSubinvoke,
	Abort:              Abort,
	Fail:               Fail,
	"__wrap_subinvoke": Subinvoke,
	"__mock_subinvoke": MockSubinvoke,
	"__wrap_abort":     Abort,
}

// Names returns every installed bridge name in sorted order.
func Names() []string {
	names := make([]string, 0, len(Aliases))
	for name := range Aliases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoker is the host transport used by subinvoke. It receives and returns msgpack payloads.
type Invoker interface {
	Invoke(ctx context.Context, uri, method string, args []byte) ([]byte, error)
}

// Host implements the bridge functions against Values. It is created per evaluation.
type Host struct {
	invoker Invoker
	logger  *slog.Logger
}

// NewHost creates a Host. A nil invoker makes every subinvoke report ErrNoInvoker.
func NewHost(handler slog.Handler, invoker Invoker) *Host {
	_, logger := helpers.SetupLogger(handler, "bridge", "Host")
	return &Host{
		invoker: invoker,
		logger:  logger,
	}
}

// Subinvoke sends args to uri/method through the Invoker and returns the decoded response.
// Transport and decode failures come back as a String value holding the failure text. The
// returned error is reserved for arguments that cannot be encoded.
func (h *Host) Subinvoke(ctx context.Context, uri, method string, args any) (any, error) {
	logger := h.logger.WithGroup("Subinvoke").With("uri", uri, "method", method)

	payload, err := codec.Encode(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeArgs, err)
	}

	if h.invoker == nil {
		logger.WarnContext(ctx, "subinvoke without invoker")
		return ErrNoInvoker.Error(), nil
	}

	resp, err := h.invoker.Invoke(ctx, uri, method, payload)
	if err != nil {
		logger.DebugContext(ctx, "invoke failed", "error", err)
		return err.Error(), nil
	}
	if len(resp) == 0 {
		return nil, nil
	}

	v, err := codec.Decode(resp)
	if err != nil {
		logger.DebugContext(ctx, "response decode failed", "error", err)
		return err.Error(), nil
	}
	logger.DebugContext(ctx, "invoke complete", "kind", data.KindOf(v))
	return v, nil
}

// MockSubinvoke performs no call. It returns "uri/method/json(args)" after passing that
// string through the wire codec, where json(args) is compact JSON with sorted object keys.
func (h *Host) MockSubinvoke(uri, method string, args any) (any, error) {
	js, err := data.EncodeJSON(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeArgs, err)
	}

	payload, err := codec.Encode(uri + "/" + method + "/" + js)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeArgs, err)
	}
	v, err := codec.Decode(payload)
	if err != nil {
		return err.Error(), nil
	}
	h.logger.Debug("mock subinvoke", "uri", uri, "method", method)
	return v, nil
}

// Abort returns the error that terminates the script.
func (h *Host) Abort(message string) *AbortError {
	h.logger.Debug("script requested abort", "message", message)
	return &AbortError{Message: message}
}
