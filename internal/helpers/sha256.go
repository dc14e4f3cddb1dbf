package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Bytes returns the hex digest of input. It keys compiled WASM modules by content.
func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}
