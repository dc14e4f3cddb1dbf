package data

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	keyValue = "value"
	keyError = "error"
)

// EvalResult is the outcome of one evaluation: either a value (which may be Null) or an error
// message, never both and never neither. Build it with Succeeded or Failed.
type EvalResult struct {
	value  any
	errMsg string
	failed bool
}

// Succeeded wraps a normalized value produced by a successful evaluation.
func Succeeded(v any) *EvalResult {
	return &EvalResult{value: v}
}

// Failed wraps the formatted message of a script that raised.
func Failed(msg string) *EvalResult {
	return &EvalResult{errMsg: msg, failed: true}
}

// GetValue returns the result value, and false when the evaluation failed.
func (r *EvalResult) GetValue() (any, bool) {
	if r.failed {
		return nil, false
	}
	return r.value, true
}

// GetError returns the error message, and false when the evaluation succeeded.
func (r *EvalResult) GetError() (string, bool) {
	if !r.failed {
		return "", false
	}
	return r.errMsg, true
}

// IsSuccess reports whether the result carries a value.
func (r *EvalResult) IsSuccess() bool {
	return !r.failed
}

// Kind returns the kind of the carried value, or INVALID for a failed result.
func (r *EvalResult) Kind() Kind {
	if r.failed {
		return INVALID
	}
	return KindOf(r.value)
}

func (r *EvalResult) String() string {
	if r.failed {
		return fmt.Sprintf("EvalResult{Error: %q}", r.errMsg)
	}
	return fmt.Sprintf("EvalResult{Value: %v, Kind: %s}", r.value, KindOf(r.value))
}

// assign enforces mutual exclusivity when decoding.
func (r *EvalResult) assign(hasValue bool, v any, hasError bool, msg string) error {
	switch {
	case hasValue && hasError:
		return fmt.Errorf("%w: both %q and %q are set", ErrInvalidResult, keyValue, keyError)
	case !hasValue && !hasError:
		return fmt.Errorf("%w: neither %q nor %q is set", ErrInvalidResult, keyValue, keyError)
	case hasError:
		*r = EvalResult{errMsg: msg, failed: true}
	default:
		*r = EvalResult{value: v}
	}
	return nil
}

// EncodeMsgpack writes a single-entry map keyed by "value" or "error".
func (r *EvalResult) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(1); err != nil {
		return err
	}
	if r.failed {
		if err := enc.EncodeString(keyError); err != nil {
			return err
		}
		return enc.EncodeString(r.errMsg)
	}
	if err := enc.EncodeString(keyValue); err != nil {
		return err
	}
	return enc.Encode(r.value)
}

func decodeUntypedMap(d *msgpack.Decoder) (any, error) {
	return d.DecodeUntypedMap()
}

// DecodeMsgpack reads a map with exactly one of "value" or "error". A nil "error" entry is
// treated as absent.
func (r *EvalResult) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: nil map", ErrInvalidResult)
	}

	var (
		hasValue, hasError bool
		value              any
		msg                string
	)
	for range n {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case keyValue:
			dec.SetMapDecoder(decodeUntypedMap)
			raw, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return err
			}
			if value, err = Normalize(raw); err != nil {
				return err
			}
			hasValue = true
		case keyError:
			raw, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return err
			}
			if raw == nil {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: %q is %T, not string", ErrInvalidResult, keyError, raw)
			}
			msg, hasError = s, true
		default:
			if err := dec.Skip(); err != nil {
				return err
			}
		}
	}
	return r.assign(hasValue, value, hasError, msg)
}

// MarshalJSON mirrors EncodeMsgpack.
func (r *EvalResult) MarshalJSON() ([]byte, error) {
	if r.failed {
		return json.Marshal(map[string]string{keyError: r.errMsg})
	}
	return json.Marshal(map[string]any{keyValue: r.value})
}

// UnmarshalJSON mirrors DecodeMsgpack. Numbers keep integer precision where the literal
// allows it.
func (r *EvalResult) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("%w: null object", ErrInvalidResult)
	}

	var (
		hasValue, hasError bool
		value              any
		msg                string
	)
	if raw, ok := fields[keyValue]; ok {
		v, err := DecodeJSON(raw)
		if err != nil {
			return err
		}
		value, hasValue = v, true
	}
	if raw, ok := fields[keyError]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidResult, keyError, err)
		}
		hasError = true
	}
	return r.assign(hasValue, value, hasError, msg)
}

// DecodeJSON decodes JSON text into a normalized value.
func DecodeJSON(b []byte) (any, error) {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v)
}

// EncodeJSON renders a value as compact JSON. Object keys come out in ascending byte order
// and HTML-significant characters are left unescaped.
func EncodeJSON(v any) (string, error) {
	n, err := Normalize(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
