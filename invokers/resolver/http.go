package resolver

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robbyt/go-evalwrap/invokers/resolver/httpauth"
)

// Authorities served by HTTPResolver. The URI path is the remote host followed by the
// resource path, e.g. wrap://https/example.com/wraps/math.
const (
	HTTPAuthority  = "http"
	HTTPSAuthority = "https"
)

// userAgent is sent unless the authenticator sets its own.
const userAgent = "go-evalwrap/http-resolver"

// HTTPOptions configures an HTTPResolver. Use DefaultHTTPOptions and adjust.
type HTTPOptions struct {
	Timeout time.Duration

	// TLSConfig takes precedence over InsecureSkipVerify.
	TLSConfig          *tls.Config
	InsecureSkipVerify bool

	Auth httpauth.Authenticator

	// MaxModuleSize caps the download. Zero means no limit.
	MaxModuleSize int64
}

// DefaultHTTPOptions: 30s timeout, verified TLS, no credentials, 64 MiB cap.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:       30 * time.Second,
		Auth:          httpauth.NoAuth{},
		MaxModuleSize: 64 << 20,
	}
}

// HTTPResolver downloads modules from wrap://http/... and wrap://https/... URIs. A path ending
// in .wasm is fetched directly; any other path gets /wrap.wasm appended.
type HTTPResolver struct {
	client  *http.Client
	options *HTTPOptions
}

// NewHTTPResolver creates an HTTPResolver. A nil options uses DefaultHTTPOptions.
func NewHTTPResolver(options *HTTPOptions) *HTTPResolver {
	if options == nil {
		options = DefaultHTTPOptions()
	}
	if options.Auth == nil {
		options.Auth = httpauth.NoAuth{}
	}

	client := &http.Client{Timeout: options.Timeout}
	if options.TLSConfig != nil || options.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if options.TLSConfig != nil {
			transport.TLSClientConfig = options.TLSConfig
		} else {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		client.Transport = transport
	}

	return &HTTPResolver{client: client, options: options}
}

func (r *HTTPResolver) String() string {
	return fmt.Sprintf("resolver.HTTPResolver{Auth: %s}", r.options.Auth.Name())
}

// URL returns the download location for uri.
func (r *HTTPResolver) URL(uri URI) (string, error) {
	if uri.Authority != HTTPAuthority && uri.Authority != HTTPSAuthority {
		return "", fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	path := strings.TrimPrefix(uri.Path, "/")
	if path == "" || strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("%w: %s has no host", ErrInvalidURI, uri)
	}
	if !strings.HasSuffix(path, ".wasm") {
		path = strings.TrimSuffix(path, "/") + "/" + wasmFileName
	}
	return uri.Authority + "://" + path, nil
}

func (r *HTTPResolver) Resolve(ctx context.Context, uri URI) ([]byte, error) {
	target, err := r.URL(uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := r.options.Auth.Authenticate(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetching %s: HTTP %s", target, resp.Status)
	}

	var body io.Reader = resp.Body
	if limit := r.options.MaxModuleSize; limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	module, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read module body: %w", err)
	}
	if limit := r.options.MaxModuleSize; limit > 0 && int64(len(module)) > limit {
		return nil, fmt.Errorf("module at %s exceeds %d bytes", target, limit)
	}
	if len(module) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModule, target)
	}
	return module, nil
}
