// Package machines builds the interpreter-specific evaluators.
package machines

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-evalwrap/engine"
	"github.com/robbyt/go-evalwrap/machines/risor"
	"github.com/robbyt/go-evalwrap/machines/starlark"
	"github.com/robbyt/go-evalwrap/machines/types"
	"github.com/robbyt/go-evalwrap/options"
)

var ErrNilConfig = errors.New("config is nil")

// NewEvaluator creates the evaluator for the machine type named in cfg.
func NewEvaluator(cfg *options.Config) (engine.Evaluator, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.GetMachineType() {
	case types.Starlark:
		return starlark.NewEvaluator(cfg.GetHandler(), cfg.GetInvoker()), nil
	case types.Risor:
		return risor.NewEvaluator(cfg.GetHandler(), cfg.GetInvoker()), nil
	default:
		return nil, fmt.Errorf("%w: %s", options.ErrInvalidMachineType, cfg.GetMachineType())
	}
}
