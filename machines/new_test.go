package machines

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalwrap/machines/risor"
	"github.com/robbyt/go-evalwrap/machines/starlark"
	"github.com/robbyt/go-evalwrap/machines/types"
	"github.com/robbyt/go-evalwrap/options"
)

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	handler := slog.NewTextHandler(io.Discard, nil)

	t.Run("starlark", func(t *testing.T) {
		cfg, err := options.New(types.Starlark, options.WithLogHandler(handler))
		require.NoError(t, err)
		e, err := NewEvaluator(cfg)
		require.NoError(t, err)
		assert.IsType(t, &starlark.Evaluator{}, e)
	})

	t.Run("risor", func(t *testing.T) {
		cfg, err := options.New(types.Risor, options.WithLogHandler(handler))
		require.NoError(t, err)
		e, err := NewEvaluator(cfg)
		require.NoError(t, err)
		assert.IsType(t, &risor.Evaluator{}, e)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewEvaluator(nil)
		require.ErrorIs(t, err, ErrNilConfig)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := options.DefaultConfig("lua")
		_, err := NewEvaluator(cfg)
		require.ErrorIs(t, err, options.ErrInvalidMachineType)
	})
}
