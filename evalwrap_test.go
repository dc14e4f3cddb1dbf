package evalwrap_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalwrap"
	"github.com/robbyt/go-evalwrap/engine"
	"github.com/robbyt/go-evalwrap/execution/codec"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/invokers/mocks"
	"github.com/robbyt/go-evalwrap/machines/types"
	"github.com/robbyt/go-evalwrap/options"
)

var quietHandler = slog.NewTextHandler(io.Discard, nil)

func evaluators(t *testing.T, opts ...options.Option) map[string]engine.Evaluator {
	t.Helper()
	opts = append([]options.Option{options.WithLogHandler(quietHandler)}, opts...)

	star, err := evalwrap.NewStarlarkEvaluator(opts...)
	require.NoError(t, err)
	ris, err := evalwrap.NewRisorEvaluator(opts...)
	require.NoError(t, err)
	return map[string]engine.Evaluator{"starlark": star, "risor": ris}
}

func TestEval(t *testing.T) {
	t.Parallel()

	result, err := evalwrap.Eval(t.Context(), "1 + 1")
	require.NoError(t, err)
	v, ok := result.GetValue()
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
}

func TestEvalWithGlobals(t *testing.T) {
	t.Parallel()

	for name, e := range evaluators(t) {
		t.Run(name, func(t *testing.T) {
			result, err := e.EvalWithGlobals(t.Context(), "x + 1", []data.GlobalVar{{Name: "x", Value: 41}})
			require.NoError(t, err)
			v, ok := result.GetValue()
			require.True(t, ok)
			assert.Equal(t, int64(42), v)
		})
	}

	result, err := evalwrap.EvalWithGlobals(t.Context(), "x + 1", []data.GlobalVar{{Name: "x", Value: 41}})
	require.NoError(t, err)
	v, _ := result.GetValue()
	assert.Equal(t, int64(42), v)
}

// Injecting a value and reading it straight back must return an equal value.
func TestGlobalRoundTrip(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"null":         nil,
		"bool":         true,
		"int":          int64(-12),
		"float":        2.5,
		"string":       "ok",
		"empty array":  []any{},
		"empty object": map[string]any{},
		"nested": map[string]any{
			"list": []any{int64(1), "two", nil, map[string]any{"deep": false}},
			"":     "empty key",
		},
	}

	for name, e := range evaluators(t) {
		for label, v := range values {
			t.Run(name+"/"+label, func(t *testing.T) {
				result, err := e.EvalWithGlobals(t.Context(), "g", []data.GlobalVar{{Name: "g", Value: v}})
				require.NoError(t, err)
				got, ok := result.GetValue()
				require.True(t, ok)
				assert.True(t, data.Equal(v, got), "want %v, got %v", v, got)
			})
		}
	}
}

func TestAbort(t *testing.T) {
	t.Parallel()

	for name, e := range evaluators(t) {
		t.Run(name, func(t *testing.T) {
			result, err := e.Eval(t.Context(), `abort("stop now")`)
			require.NoError(t, err)
			msg, ok := result.GetError()
			require.True(t, ok)
			assert.Equal(t, "stop now", msg)
			_, hasValue := result.GetValue()
			assert.False(t, hasValue)
		})
	}
}

func TestMockSubinvokeDeterminism(t *testing.T) {
	t.Parallel()

	for name, e := range evaluators(t) {
		t.Run(name, func(t *testing.T) {
			result, err := e.Eval(t.Context(), `mock_subinvoke("uriaaa", "metth", {"b": 2, "a": 4})`)
			require.NoError(t, err)
			v, ok := result.GetValue()
			require.True(t, ok)
			assert.Equal(t, `uriaaa/metth/{"a":4,"b":2}`, v)
		})
	}
}

func TestSubinvokeThroughInvoker(t *testing.T) {
	t.Parallel()

	resp, err := codec.Encode(map[string]any{"answer": int64(42)})
	require.NoError(t, err)

	invoker := &mocks.Invoker{}
	invoker.On("Invoke", mock.Anything, "wrap://ens/q", "ask", mock.Anything).Return(resp, nil)

	for name, e := range evaluators(t, options.WithInvoker(invoker)) {
		t.Run(name, func(t *testing.T) {
			result, err := e.Eval(t.Context(), `subinvoke("wrap://ens/q", "ask", "why")["answer"]`)
			require.NoError(t, err)
			v, ok := result.GetValue()
			require.True(t, ok)
			assert.Equal(t, int64(42), v)
		})
	}
	invoker.AssertNumberOfCalls(t, "Invoke", 2)
}

func TestMutualExclusivity(t *testing.T) {
	t.Parallel()

	scripts := []string{"1", "nil_or_none", `fail("x")`, `abort("y")`, "[]"}
	for name, e := range evaluators(t) {
		for _, src := range scripts {
			result, err := e.Eval(t.Context(), src)
			require.NoError(t, err, "%s: %s", name, src)
			_, hasValue := result.GetValue()
			_, hasError := result.GetError()
			assert.NotEqual(t, hasValue, hasError, "%s: %s", name, src)
		}
	}
}

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	e, err := evalwrap.NewEvaluator(options.WithLogHandler(quietHandler), options.WithMachineType(types.Risor))
	require.NoError(t, err)
	result, err := e.Eval(t.Context(), "x := 2\nx * 21")
	require.NoError(t, err)
	v, _ := result.GetValue()
	assert.Equal(t, int64(42), v)

	_, err = evalwrap.NewEvaluator(options.WithMachineType("cobol"))
	require.ErrorIs(t, err, options.ErrInvalidMachineType)
}
