package extism

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
)

// compiledPlugin abstracts extismSDK.CompiledPlugin.
type compiledPlugin interface {
	Instance(ctx context.Context, config extismSDK.PluginInstanceConfig) (pluginInstance, error)
	Close(ctx context.Context) error
}

// pluginInstance abstracts extismSDK.Plugin.
type pluginInstance interface {
	CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error)
	FunctionExists(name string) bool
	Close(ctx context.Context) error
}

// sdkCompiledPluginAdapter adapts extismSDK.CompiledPlugin to compiledPlugin
type sdkCompiledPluginAdapter struct {
	plugin *extismSDK.CompiledPlugin
}

func newCompiledPluginAdapter(plugin *extismSDK.CompiledPlugin) compiledPlugin {
	if plugin == nil {
		return nil
	}
	return &sdkCompiledPluginAdapter{plugin: plugin}
}

func (a *sdkCompiledPluginAdapter) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (pluginInstance, error) {
	instance, err := a.plugin.Instance(ctx, config)
	if err != nil {
		return nil, err
	}
	return &sdkPluginAdapter{instance: instance}, nil
}

func (a *sdkCompiledPluginAdapter) Close(ctx context.Context) error {
	return a.plugin.Close(ctx)
}

// sdkPluginAdapter adapts extismSDK.Plugin to pluginInstance
type sdkPluginAdapter struct {
	instance *extismSDK.Plugin
}

func (a *sdkPluginAdapter) CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error) {
	return a.instance.CallWithContext(ctx, name, data)
}

func (a *sdkPluginAdapter) FunctionExists(name string) bool {
	return a.instance.FunctionExists(name)
}

func (a *sdkPluginAdapter) Close(ctx context.Context) error {
	return a.instance.Close(ctx)
}
