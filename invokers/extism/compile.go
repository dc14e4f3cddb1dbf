package extism

import (
	"context"
	"fmt"

	extismSDK "github.com/extism/go-sdk"
)

// compileFunc turns WASM bytes into a compiled plugin.
type compileFunc func(ctx context.Context, wasmBytes []byte) (compiledPlugin, error)

// sdkCompiler returns a compileFunc backed by the Extism SDK with the invoker's settings.
func sdkCompiler(cfg *config) compileFunc {
	return func(ctx context.Context, wasmBytes []byte) (compiledPlugin, error) {
		if len(wasmBytes) == 0 {
			return nil, ErrContentNil
		}

		manifest := extismSDK.Manifest{
			Wasm: []extismSDK.Wasm{
				extismSDK.WasmData{Data: wasmBytes},
			},
		}
		pluginConfig := extismSDK.PluginConfig{
			EnableWasi:    cfg.enableWASI,
			RuntimeConfig: cfg.runtimeConfig,
		}

		plugin, err := extismSDK.NewCompiledPlugin(ctx, manifest, pluginConfig, cfg.hostFunctions)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
		}
		return newCompiledPluginAdapter(plugin), nil
	}
}
