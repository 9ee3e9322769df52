// Package logging builds the zap loggers used by the host and hands scoped
// child loggers to plugins.
package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a *zap.Logger from the given Config.
func New(config Config) *zap.Logger {
	config.applyDefaults()

	cores := buildCores(config)
	if len(cores) == 0 {
		return zap.NewNop()
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if config.ShowLineNumber {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger
}

// ForPlugin returns the child logger handed to one plugin's hooks.
func ForPlugin(base *zap.Logger, pluginID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.Named("plugin").With(zap.String("plugin", pluginID))
}

var (
	global   *zap.Logger
	globalMu sync.RWMutex
)

// Global returns the process logger, a no-op logger until SetGlobal is called.
func Global() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global == nil {
		return zap.NewNop()
	}
	return global
}

// SetGlobal replaces the process logger.
func SetGlobal(logger *zap.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = logger
}

type ctxKey struct{}

// ToContext stores a logger in ctx.
func ToContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or Global().
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return Global()
}
