// Package extism serves subinvoke calls by running the exported method of a WASM wrap module
// through the Extism SDK. Modules are found through a resolver.Resolver and compiled once per
// distinct module content.
package extism

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"

	"github.com/robbyt/go-evalwrap/internal/helpers"
	"github.com/robbyt/go-evalwrap/invokers/resolver"
)

// Invoker implements bridge.Invoker on top of Extism. Each call runs in a fresh plugin
// instance; compiled plugins are shared. It is safe for concurrent use.
type Invoker struct {
	resolver resolver.Resolver
	compile  compileFunc

	mu      sync.Mutex
	plugins map[string]compiledPlugin
	closed  bool

	logger *slog.Logger
}

// New creates an Invoker that loads modules from r.
func New(r resolver.Resolver, opts ...Option) (*Invoker, error) {
	if r == nil {
		return nil, ErrNoResolver
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying invoker option: %w", err)
		}
	}

	_, logger := helpers.SetupLogger(cfg.handler, "extism", "Invoker")
	return &Invoker{
		resolver: r,
		compile:  sdkCompiler(cfg),
		plugins:  make(map[string]compiledPlugin),
		logger:   logger,
	}, nil
}

func (i *Invoker) String() string {
	return "extism.Invoker"
}

// Invoke resolves uri, calls method with args as input and returns the method output.
func (i *Invoker) Invoke(ctx context.Context, uri, method string, args []byte) ([]byte, error) {
	logger := i.logger.WithGroup("Invoke").With("uri", uri, "method", method)

	parsed, err := resolver.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	module, err := i.resolver.Resolve(ctx, parsed)
	if err != nil {
		return nil, err
	}

	plugin, err := i.plugin(ctx, module)
	if err != nil {
		return nil, err
	}

	instance, err := plugin.Instance(ctx, instanceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin instance: %w", err)
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close plugin instance", "error", err)
		}
	}()

	if !instance.FunctionExists(method) {
		return nil, fmt.Errorf("%w: %s in %s", ErrMethodNotFound, method, parsed)
	}

	startTime := time.Now()
	exit, output, err := instance.CallWithContext(ctx, method, args)
	logger = logger.With("execTime", time.Since(startTime))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("execution cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNonZeroExit, exit)
	}

	logger.DebugContext(ctx, "invoke complete", "outputSize", len(output))
	return output, nil
}

// plugin returns the compiled plugin for module, compiling it on first use.
func (i *Invoker) plugin(ctx context.Context, module []byte) (compiledPlugin, error) {
	key := helpers.SHA256Bytes(module)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, ErrInvokerClosed
	}
	if p, ok := i.plugins[key]; ok {
		return p, nil
	}

	p, err := i.compile(ctx, module)
	if err != nil {
		return nil, err
	}
	i.plugins[key] = p
	i.logger.DebugContext(ctx, "compiled wasm module", "sha256", key)
	return p, nil
}

// Close releases every compiled plugin. Invoke fails with ErrInvokerClosed afterwards.
func (i *Invoker) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true

	var errz []error
	for key, p := range i.plugins {
		if err := p.Close(ctx); err != nil {
			errz = append(errz, fmt.Errorf("plugin %s: %w", key, err))
		}
		delete(i.plugins, key)
	}
	return errors.Join(errz...)
}

func instanceConfig() extismSDK.PluginInstanceConfig {
	moduleConfig := wazero.NewModuleConfig().
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	return extismSDK.PluginInstanceConfig{
		ModuleConfig: moduleConfig,
	}
}
