package httpauth

import (
	"context"
	"net/http"
)

// BasicAuth sets an RFC 7617 Authorization header. An empty Username sends no header.
type BasicAuth struct {
	Username string
	Password string
}

func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{Username: username, Password: password}
}

func (b *BasicAuth) Authenticate(ctx context.Context, req *http.Request) error {
	return apply(ctx, req, func(r *http.Request) {
		if b.Username != "" {
			r.SetBasicAuth(b.Username, b.Password)
		}
	})
}

func (b *BasicAuth) Name() string {
	return "Basic"
}
