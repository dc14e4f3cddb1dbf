package bridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatException(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []any
		ok       bool
		expected string
	}{
		{name: "single string", args: []any{"boom"}, ok: true, expected: "boom"},
		{name: "joined", args: []any{"a", "b", "c"}, ok: true, expected: "a b c"},
		{name: "non-string", args: []any{"a", 1, "b"}, ok: true, expected: "a <unprintable> b"},
		{name: "only non-string", args: []any{nil}, ok: true, expected: "<unprintable>"},
		{name: "no args", args: nil, ok: true, expected: ""},
		{name: "outer whitespace trimmed", args: []any{" x ", "y\n"}, ok: true, expected: "x  y"},
		{name: "not obtainable", args: []any{"ignored"}, ok: false, expected: NoArgsMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatException(tt.args, tt.ok))
		})
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stop", FormatError(&AbortError{Message: "stop"}))
	assert.Equal(t, "x <unprintable>", FormatError(&ScriptError{Args: []any{"x", 2}}))
	assert.Equal(t, NoArgsMessage, FormatError(&ScriptError{}))
	assert.Equal(t, "plain", FormatError(errors.New(" plain\n")))
	assert.Equal(t, "wrapped: stop", FormatError(fmt.Errorf("wrapped: %w", errors.New("stop"))))
	assert.Equal(t, "stop", FormatError(fmt.Errorf("in call: %w", &AbortError{Message: "stop"})))
	assert.Equal(t, NoArgsMessage, FormatError(nil))
}
