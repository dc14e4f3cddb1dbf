package options

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-evalwrap/execution/bridge"
	"github.com/robbyt/go-evalwrap/machines/types"
)

// Config holds all configuration for creating an evaluator
type Config struct {
	// Logger for the evaluator
	handler slog.Handler
	// Type of machine to use (starlark, risor)
	machineType types.Type
	// Transport used by subinvoke, may be nil
	invoker bridge.Invoker
}

// Option is a function that modifies Config
type Option func(*Config) error

// New builds a Config for machineType from opts, fills in defaults and validates it.
func New(machineType types.Type, opts ...Option) (*Config, error) {
	cfg := DefaultConfig(machineType)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if err := WithDefaults()(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithLogHandler sets the log handler for the evaluator
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler != nil {
			c.handler = handler
		}
		return nil
	}
}

// WithInvoker sets the transport used by the subinvoke bridge function
func WithInvoker(invoker bridge.Invoker) Option {
	return func(c *Config) error {
		c.invoker = invoker
		return nil
	}
}

// WithMachineType overrides the machine type
func WithMachineType(machineType types.Type) Option {
	return func(c *Config) error {
		if !machineType.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidMachineType, machineType)
		}
		c.machineType = machineType
		return nil
	}
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.machineType == "" {
		return ErrNoMachineType
	}
	if !c.machineType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMachineType, c.machineType)
	}
	if c.handler == nil {
		return ErrNoHandler
	}
	return nil
}

// GetHandler returns the configured log handler
func (c *Config) GetHandler() slog.Handler {
	return c.handler
}

// SetHandler sets the log handler
func (c *Config) SetHandler(handler slog.Handler) {
	c.handler = handler
}

// GetMachineType returns the configured machine type
func (c *Config) GetMachineType() types.Type {
	return c.machineType
}

// SetMachineType sets the machine type
func (c *Config) SetMachineType(machineType types.Type) {
	c.machineType = machineType
}

// GetInvoker returns the configured invoker, which may be nil
func (c *Config) GetInvoker() bridge.Invoker {
	return c.invoker
}
