package evaluator

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/execution/codec"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/invokers/mocks"
)

func quietHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

func requireValue(t *testing.T, result *data.EvalResult, expected any) {
	t.Helper()
	require.NotNil(t, result)
	errMsg, failed := result.GetError()
	require.False(t, failed, "unexpected failure: %s", errMsg)
	v, ok := result.GetValue()
	require.True(t, ok)
	require.Equal(t, expected, v)
}

func requireFailure(t *testing.T, result *data.EvalResult) string {
	t.Helper()
	require.NotNil(t, result)
	v, hasValue := result.GetValue()
	require.False(t, hasValue, "unexpected value: %v", v)
	msg, ok := result.GetError()
	require.True(t, ok)
	return msg
}

func TestEvaluator_Eval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		expected any
	}{
		{name: "arithmetic", src: "1 + 2", expected: int64(3)},
		{name: "string", src: `"a" + "b"`, expected: "ab"},
		{name: "float", src: "1.5 * 2", expected: 3.0},
		{name: "bool", src: "3 > 2", expected: true},
		{name: "nil", src: "nil", expected: nil},
		{name: "empty source", src: "  \n", expected: nil},
		{name: "list", src: `[1, "a", nil, [true]]`, expected: []any{int64(1), "a", nil, []any{true}}},
		{
			name:     "map",
			src:      `{"a": 1, "b": {"c": []}}`,
			expected: map[string]any{"a": int64(1), "b": map[string]any{"c": []any{}}},
		},
		{name: "variables", src: "x := 40\ny := 2\nx + y", expected: int64(42)},
		{name: "builtin", src: `len([1, 2, 3])`, expected: int64(3)},
		{name: "function result is truthy", src: "len", expected: true},
		{name: "set result is truthy", src: "s := {1, 2}\ns", expected: true},
		{name: "function argument to mock", src: `mock_subinvoke("u", "m", [len])`, expected: "u/m/[true]"},
	}

	e := New(quietHandler(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := e.Eval(t.Context(), tt.src)
			require.NoError(t, err)
			requireValue(t, result, tt.expected)
		})
	}
}

func TestEvaluator_EvalWithGlobals(t *testing.T) {
	t.Parallel()

	e := New(quietHandler(), nil)

	t.Run("injected global", func(t *testing.T) {
		result, err := e.EvalWithGlobals(t.Context(), "x + 1", []data.GlobalVar{{Name: "x", Value: 41}})
		require.NoError(t, err)
		requireValue(t, result, int64(42))
	})

	t.Run("object global", func(t *testing.T) {
		globals := data.GlobalsFromMap(map[string]any{
			"request": map[string]any{"method": "GET"},
		})
		result, err := e.EvalWithGlobals(t.Context(), `request["method"]`, globals)
		require.NoError(t, err)
		requireValue(t, result, "GET")
	})

	t.Run("round trip of a global", func(t *testing.T) {
		values := []any{
			nil,
			false,
			int64(math.MaxInt64),
			0.25,
			"text",
			[]any{int64(1), []any{}},
			map[string]any{"k": map[string]any{"": "empty key"}},
		}
		for _, v := range values {
			result, err := e.EvalWithGlobals(t.Context(), "g", []data.GlobalVar{{Name: "g", Value: v}})
			require.NoError(t, err)
			requireValue(t, result, v)
		}
	})
}

func TestEvaluator_ScriptFailures(t *testing.T) {
	t.Parallel()

	e := New(quietHandler(), nil)

	t.Run("fail", func(t *testing.T) {
		result, err := e.Eval(t.Context(), `fail("boom")`)
		require.NoError(t, err)
		assert.Contains(t, requireFailure(t, result), "boom")
	})

	t.Run("abort", func(t *testing.T) {
		result, err := e.Eval(t.Context(), "x := 1\nabort(\"stop now\")\nx")
		require.NoError(t, err)
		assert.Equal(t, "stop now", requireFailure(t, result))
	})

	t.Run("abort alias", func(t *testing.T) {
		result, err := e.Eval(t.Context(), `__wrap_abort("bye")`)
		require.NoError(t, err)
		assert.Equal(t, "bye", requireFailure(t, result))
	})

	t.Run("undefined name", func(t *testing.T) {
		result, err := e.Eval(t.Context(), "nope + 1")
		require.NoError(t, err)
		assert.NotEmpty(t, requireFailure(t, result))
	})

	t.Run("syntax error", func(t *testing.T) {
		result, err := e.Eval(t.Context(), "x := (")
		require.NoError(t, err)
		assert.NotEmpty(t, requireFailure(t, result))
	})

	t.Run("bad arg count", func(t *testing.T) {
		result, err := e.Eval(t.Context(), `mock_subinvoke("a")`)
		require.NoError(t, err)
		assert.Contains(t, requireFailure(t, result), "want 3")
	})
}

func TestEvaluator_FatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		globals []data.GlobalVar
		target  error
	}{
		{
			name:    "non-finite global",
			src:     "x",
			globals: []data.GlobalVar{{Name: "x", Value: math.NaN()}},
			target:  data.ErrUnsupportedValueShape,
		},
		{
			name:    "unsigned global out of range",
			src:     "x",
			globals: []data.GlobalVar{{Name: "x", Value: uint64(math.MaxUint64)}},
			target:  data.ErrUnsupportedValueShape,
		},
		{
			name:    "empty global name",
			src:     "1",
			globals: []data.GlobalVar{{Name: "", Value: 1}},
			target:  bridge.ErrScopeSetup,
		},
	}

	e := New(quietHandler(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := e.EvalWithGlobals(t.Context(), tt.src, tt.globals)
			require.ErrorIs(t, err, tt.target)
			assert.Nil(t, result)
		})
	}
}

func TestEvaluator_Bridge(t *testing.T) {
	t.Parallel()

	t.Run("mock subinvoke", func(t *testing.T) {
		e := New(quietHandler(), nil)
		result, err := e.Eval(t.Context(), `mock_subinvoke("uriaaa", "metth", {"b": 2, "a": 4})`)
		require.NoError(t, err)
		requireValue(t, result, `uriaaa/metth/{"a":4,"b":2}`)
	})

	t.Run("subinvoke decoded response", func(t *testing.T) {
		args, err := codec.Encode([]any{int64(1), "two"})
		require.NoError(t, err)
		resp, err := codec.Encode(map[string]any{"sum": int64(3)})
		require.NoError(t, err)

		invoker := &mocks.Invoker{}
		invoker.On("Invoke", mock.Anything, "wrap://ens/math", "add", args).Return(resp, nil)

		e := New(quietHandler(), invoker)
		result, err := e.Eval(t.Context(), `subinvoke("wrap://ens/math", "add", [1, "two"])`)
		require.NoError(t, err)
		requireValue(t, result, map[string]any{"sum": int64(3)})
		invoker.AssertExpectations(t)
	})

	t.Run("subinvoke transport error", func(t *testing.T) {
		invoker := &mocks.Invoker{}
		invoker.On("Invoke", mock.Anything, "u", "m", mock.Anything).Return(nil, errors.New("offline"))

		e := New(quietHandler(), invoker)
		result, err := e.Eval(t.Context(), `subinvoke("u", "m", nil)`)
		require.NoError(t, err)
		requireValue(t, result, "offline")
	})
}
