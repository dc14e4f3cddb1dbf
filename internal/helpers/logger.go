package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns the handler to keep and a logger grouped under groupName. A nil handler
// is replaced by a stderr text handler grouped under component, and a warning is logged once
// through it.
func SetupLogger(handler slog.Handler, component string, groupName string) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil).WithGroup(component)
		slog.New(handler).Warn("Handler is nil, using the default logger configuration.")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}
