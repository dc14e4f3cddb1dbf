package wrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalwrap/execution/codec"
	"github.com/robbyt/go-evalwrap/execution/data"
	"github.com/robbyt/go-evalwrap/machines/risor"
	"github.com/robbyt/go-evalwrap/machines/starlark"
)

var quietHandler = slog.NewTextHandler(io.Discard, nil)

// mockEvaluator is a testify mock of engine.Evaluator
type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) Eval(ctx context.Context, src string) (*data.EvalResult, error) {
	args := m.Called(ctx, src)
	result, _ := args.Get(0).(*data.EvalResult)
	return result, args.Error(1)
}

func (m *mockEvaluator) EvalWithGlobals(
	ctx context.Context,
	src string,
	globals []data.GlobalVar,
) (*data.EvalResult, error) {
	args := m.Called(ctx, src, globals)
	result, _ := args.Get(0).(*data.EvalResult)
	return result, args.Error(1)
}

func decodeResult(t *testing.T, b []byte) *data.EvalResult {
	t.Helper()
	var result data.EvalResult
	require.NoError(t, codec.Unmarshal(b, &result))
	return &result
}

func TestModule_Invoke(t *testing.T) {
	t.Parallel()

	m, err := NewModule(starlark.NewEvaluator(quietHandler, nil), quietHandler)
	require.NoError(t, err)

	t.Run("eval", func(t *testing.T) {
		payload, err := codec.Marshal(ArgsEval{Src: "[1, 2][1]"})
		require.NoError(t, err)

		out, err := m.Invoke(t.Context(), MethodEval, payload)
		require.NoError(t, err)
		result := decodeResult(t, out)
		v, ok := result.GetValue()
		require.True(t, ok)
		assert.Equal(t, int64(2), v)
	})

	t.Run("eval with globals", func(t *testing.T) {
		payload, err := codec.Marshal(ArgsEvalWithGlobals{
			Src: `x + 1`,
			Globals: []data.GlobalVar{
				{Name: "x", Value: 41},
			},
		})
		require.NoError(t, err)

		out, err := m.Invoke(t.Context(), MethodEvalWithGlobals, payload)
		require.NoError(t, err)
		v, ok := decodeResult(t, out).GetValue()
		require.True(t, ok)
		assert.Equal(t, int64(42), v)
	})

	t.Run("script failure is inside the result", func(t *testing.T) {
		payload, err := codec.Marshal(ArgsEval{Src: `abort("stop now")`})
		require.NoError(t, err)

		out, err := m.Invoke(t.Context(), MethodEval, payload)
		require.NoError(t, err)
		msg, ok := decodeResult(t, out).GetError()
		require.True(t, ok)
		assert.Equal(t, "stop now", msg)

		js, err := MsgpackToJSON(out)
		require.NoError(t, err)
		assert.Equal(t, `{"error":"stop now"}`, js)
	})

	t.Run("null value is encoded", func(t *testing.T) {
		payload, err := codec.Marshal(ArgsEval{Src: "None"})
		require.NoError(t, err)

		out, err := m.Invoke(t.Context(), MethodEval, payload)
		require.NoError(t, err)
		js, err := MsgpackToJSON(out)
		require.NoError(t, err)
		assert.Equal(t, `{"value":null}`, js)
	})

	t.Run("fatal engine error", func(t *testing.T) {
		payload, err := codec.Marshal(ArgsEval{Src: `{1: 2}`})
		require.NoError(t, err)

		_, err = m.Invoke(t.Context(), MethodEval, payload)
		require.ErrorIs(t, err, data.ErrUnsupportedValueShape)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := m.Invoke(t.Context(), "compile", []byte{0x80})
		require.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := m.Invoke(t.Context(), MethodEval, nil)
		require.ErrorIs(t, err, ErrDecodeArgs)

		_, err = m.Invoke(t.Context(), MethodEvalWithGlobals, []byte{0xc1})
		require.ErrorIs(t, err, ErrDecodeArgs)
	})
}

func TestModule_Risor(t *testing.T) {
	t.Parallel()

	m, err := NewModule(risor.NewEvaluator(quietHandler, nil), quietHandler)
	require.NoError(t, err)

	payload, err := JSONToMsgpack(`{"src": "mock_subinvoke(\"uriaaa\", \"metth\", {\"b\": 2, \"a\": 4})"}`)
	require.NoError(t, err)

	out, err := m.Invoke(t.Context(), MethodEval, payload)
	require.NoError(t, err)
	v, ok := decodeResult(t, out).GetValue()
	require.True(t, ok)
	assert.Equal(t, `uriaaa/metth/{"a":4,"b":2}`, v)
}

func TestModule_DelegatesToEvaluator(t *testing.T) {
	t.Parallel()

	e := &mockEvaluator{}
	globals := []data.GlobalVar{{Name: "g", Value: "v"}}
	e.On("EvalWithGlobals", mock.Anything, "g", globals).Return(data.Succeeded("v"), nil)
	e.On("Eval", mock.Anything, "boom").Return(nil, errors.New("engine down"))

	m, err := NewModule(e, quietHandler)
	require.NoError(t, err)

	payload, err := codec.Marshal(ArgsEvalWithGlobals{Src: "g", Globals: globals})
	require.NoError(t, err)
	_, err = m.Invoke(t.Context(), MethodEvalWithGlobals, payload)
	require.NoError(t, err)

	payload, err = codec.Marshal(ArgsEval{Src: "boom"})
	require.NoError(t, err)
	_, err = m.Invoke(t.Context(), MethodEval, payload)
	require.ErrorContains(t, err, "engine down")

	e.AssertExpectations(t)
}

func TestNewModule(t *testing.T) {
	t.Parallel()

	_, err := NewModule(nil, quietHandler)
	require.ErrorIs(t, err, ErrNilEvaluator)
}

func TestJSONConversions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{name: "object", json: `{"a":[1,2.5,"x",null,true],"b":{}}`},
		{name: "scalar", json: `"<&>"`},
		{name: "null", json: `null`},
		{name: "big int", json: `9223372036854775807`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := JSONToMsgpack(tt.json)
			require.NoError(t, err)
			back, err := MsgpackToJSON(b)
			require.NoError(t, err)
			assert.Equal(t, tt.json, back)
		})
	}

	_, err := JSONToMsgpack("{")
	require.Error(t, err)
	_, err = MsgpackToJSON(nil)
	require.ErrorIs(t, err, codec.ErrEmptyPayload)
}
