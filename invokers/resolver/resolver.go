// Package resolver maps wrap URIs to the WASM bytes of the module that serves them.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver returns the WASM module registered for a URI, or an error wrapping ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, uri URI) ([]byte, error)
}

// StaticResolver serves modules from memory. It is safe for concurrent use.
type StaticResolver struct {
	mu      sync.RWMutex
	modules map[string][]byte
}

// NewStaticResolver creates a StaticResolver holding modules keyed by URI string. Keys that do
// not parse as wrap URIs are rejected.
func NewStaticResolver(modules map[string][]byte) (*StaticResolver, error) {
	r := &StaticResolver{modules: make(map[string][]byte, len(modules))}
	for raw, module := range modules {
		if err := r.Register(raw, module); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces the module for raw.
func (r *StaticResolver) Register(raw string, module []byte) error {
	uri, err := ParseURI(raw)
	if err != nil {
		return err
	}
	if len(module) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyModule, uri)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[uri.String()] = module
	return nil
}

func (r *StaticResolver) Resolve(_ context.Context, uri URI) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, ok := r.modules[uri.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return module, nil
}

// URIs returns a copy of the registered URI strings and their module sizes.
func (r *StaticResolver) URIs() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sizes := make(map[string]int, len(r.modules))
	for k, v := range r.modules {
		sizes[k] = len(v)
	}
	return sizes
}

// FSAuthority is the authority served by FSResolver.
const FSAuthority = "fs"

// wasmFileName is the module file looked up inside a wrap directory.
const wasmFileName = "wrap.wasm"

// FSResolver serves wrap://fs/<path> from the local filesystem, relative to Root. A path
// ending in .wasm names the module file directly; any other path is a directory holding
// wrap.wasm.
type FSResolver struct {
	Root string
}

func (r *FSResolver) Resolve(_ context.Context, uri URI) ([]byte, error) {
	if uri.Authority != FSAuthority {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}

	path := filepath.FromSlash(uri.Path)
	if r.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, path)
	}
	if !strings.HasSuffix(path, ".wasm") {
		path = filepath.Join(path, wasmFileName)
	}

	module, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(module) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModule, path)
	}
	return module, nil
}

// ChainResolver asks each resolver in order and returns the first module found. Errors other
// than ErrNotFound stop the chain.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(ctx context.Context, uri URI) ([]byte, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		module, err := r.Resolve(ctx, uri)
		if err == nil {
			return module, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
}
