// Package httpauth holds the credential strategies HTTPResolver applies to module downloads.
package httpauth

import (
	"context"
	"net/http"
)

// Authenticator adds credentials to an outgoing module request.
type Authenticator interface {
	// Authenticate modifies req in place. It fails without touching req when ctx is done.
	Authenticate(ctx context.Context, req *http.Request) error

	// Name identifies the strategy in logs.
	Name() string
}

func apply(ctx context.Context, req *http.Request, fn func(*http.Request)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn(req)
	return nil
}
