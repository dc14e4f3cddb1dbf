package extism

import (
	"errors"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

type config struct {
	handler       slog.Handler
	enableWASI    bool
	runtimeConfig wazero.RuntimeConfig
	hostFunctions []extismSDK.HostFunction
}

func defaultConfig() *config {
	return &config{
		enableWASI:    true,
		runtimeConfig: wazero.NewRuntimeConfig(),
	}
}

// Option configures an Invoker.
type Option func(*config) error

// WithLogHandler sets the slog handler used by the invoker.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return errors.New("log handler cannot be nil")
		}
		c.handler = handler
		return nil
	}
}

// WithWASI enables or disables WASI for compiled modules. WASI is on by default.
func WithWASI(enabled bool) Option {
	return func(c *config) error {
		c.enableWASI = enabled
		return nil
	}
}

// WithRuntimeConfig sets the wazero runtime configuration used to compile modules.
func WithRuntimeConfig(rc wazero.RuntimeConfig) Option {
	return func(c *config) error {
		if rc == nil {
			return errors.New("runtime config cannot be nil")
		}
		c.runtimeConfig = rc
		return nil
	}
}

// WithHostFunctions registers host functions available to every module.
func WithHostFunctions(fns ...extismSDK.HostFunction) Option {
	return func(c *config) error {
		c.hostFunctions = append(c.hostFunctions, fns...)
		return nil
	}
}
