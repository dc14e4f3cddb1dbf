// Package codec is the binary wire format used across the module boundary and by the bridge
// functions. It is msgpack, which is a strict superset of the JSON value model.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/robbyt/go-evalwrap/execution/data"
)

// ErrEmptyPayload is returned when decoding zero bytes.
var ErrEmptyPayload = errors.New("empty msgpack payload")

// Encode normalizes a Value and encodes it. Object keys are written in sorted order, so equal
// values always produce equal bytes.
func Encode(v any) ([]byte, error) {
	n, err := data.Normalize(v)
	if err != nil {
		return nil, err
	}
	return Marshal(n)
}

// Decode decodes a payload into a normalized Value.
func Decode(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, ErrEmptyPayload
	}
	dec := newDecoder(b)
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, fmt.Errorf("failed to decode msgpack: %w", err)
	}
	return data.Normalize(v)
}

// Marshal encodes any msgpack-serializable Go value, such as request argument structs or an
// EvalResult.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a payload into a Go value. Untyped fields decode loosely (int64, uint64,
// float64) and still need data.Normalize before use.
func Unmarshal(b []byte, v any) error {
	if len(b) == 0 {
		return ErrEmptyPayload
	}
	dec := newDecoder(b)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode msgpack: %w", err)
	}
	return nil
}

// newDecoder decodes untyped maps as map[any]any, so a non-string key reaches data.Normalize
// and fails there as an unsupported shape.
func newDecoder(b []byte) *msgpack.Decoder {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeUntypedMap()
	})
	return dec
}
