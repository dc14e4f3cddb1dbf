package resolver

import (
	"fmt"
	"strings"
)

// Scheme is the URI scheme of wrap modules.
const Scheme = "wrap"

// URI identifies a wrap module as an authority plus a path, as in wrap://ens/math.eth.
type URI struct {
	Authority string
	Path      string
}

// ParseURI parses s as a wrap URI. The scheme may be omitted, so "ens/math.eth" and
// "wrap://ens/math.eth" are the same URI.
func ParseURI(s string) (URI, error) {
	rest := strings.TrimSpace(s)
	if scheme, tail, found := strings.Cut(rest, "://"); found {
		if scheme != Scheme {
			return URI{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, scheme)
		}
		rest = tail
	}

	authority, path, _ := strings.Cut(rest, "/")
	if authority == "" {
		return URI{}, fmt.Errorf("%w: %q has no authority", ErrInvalidURI, s)
	}
	if path == "" {
		return URI{}, fmt.Errorf("%w: %q has no path", ErrInvalidURI, s)
	}
	return URI{Authority: authority, Path: path}, nil
}

// String returns the canonical form wrap://authority/path.
func (u URI) String() string {
	return Scheme + "://" + u.Authority + "/" + u.Path
}
