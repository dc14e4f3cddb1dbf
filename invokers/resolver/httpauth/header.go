package httpauth

import (
	"context"
	"maps"
	"net/http"
)

// HeaderAuth sets a fixed group of headers, e.g. an API key or a bearer token.
type HeaderAuth struct {
	Headers map[string]string
}

// NewHeaderAuth copies headers so later changes by the caller have no effect.
func NewHeaderAuth(headers map[string]string) *HeaderAuth {
	return &HeaderAuth{Headers: maps.Clone(headers)}
}

// NewBearerAuth sends "Authorization: Bearer <token>".
func NewBearerAuth(token string) *HeaderAuth {
	return &HeaderAuth{Headers: map[string]string{"Authorization": "Bearer " + token}}
}

func (h *HeaderAuth) Authenticate(ctx context.Context, req *http.Request) error {
	return apply(ctx, req, func(r *http.Request) {
		for key, value := range h.Headers {
			r.Header.Set(key, value)
		}
	})
}

func (h *HeaderAuth) Name() string {
	return "Header"
}
