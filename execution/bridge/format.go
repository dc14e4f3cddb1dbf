package bridge

import "strings"

const (
	// UnprintablePlaceholder replaces exception arguments that are not strings.
	UnprintablePlaceholder = "<unprintable>"

	// NoArgsMessage is returned when the exception arguments cannot be obtained.
	NoArgsMessage = "<error obtaining exception arguments>"
)

// FormatException joins the string arguments of a raised exception with single spaces.
// Arguments that are not strings become UnprintablePlaceholder. When ok is false the arguments
// were not obtainable and NoArgsMessage is returned. FormatException never panics.
func FormatException(args []any, ok bool) (msg string) {
	if !ok {
		return NoArgsMessage
	}
	defer func() {
		if r := recover(); r != nil {
			msg = NoArgsMessage
		}
	}()

	var sb strings.Builder
	for _, arg := range args {
		if s, isString := arg.(string); isString {
			sb.WriteString(s)
		} else {
			sb.WriteString(UnprintablePlaceholder)
		}
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

// FormatError formats err with the default argument extraction.
func FormatError(err error) string {
	return FormatException(ExceptionArgs(err))
}
