package resolver

import "errors"

var (
	// ErrInvalidURI is returned when a string is not a wrap URI.
	ErrInvalidURI = errors.New("invalid wrap URI")

	// ErrNotFound is returned when no module is registered for a URI.
	ErrNotFound = errors.New("wrap module not found")

	// ErrEmptyModule is returned when a registered module has no bytes.
	ErrEmptyModule = errors.New("wrap module is empty")
)
