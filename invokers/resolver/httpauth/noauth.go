package httpauth

import (
	"context"
	"net/http"
)

// NoAuth sends requests without credentials.
type NoAuth struct{}

func (NoAuth) Authenticate(ctx context.Context, req *http.Request) error {
	return apply(ctx, req, func(*http.Request) {})
}

func (NoAuth) Name() string {
	return "None"
}
