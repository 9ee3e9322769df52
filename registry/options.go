package registry

import (
	"github.com/leeforge/pyracms/plugin"
	"go.uber.org/zap"
)

type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus plugin.EventBus) Option {
	return func(r *Registry) {
		r.events = bus
	}
}

// WithAppContext sets the factory for the context handed to a plugin's
// hooks. Nil collaborators in the returned context are filled with no-ops.
func WithAppContext(fn func(p plugin.Plugin) *plugin.AppContext) Option {
	return func(r *Registry) {
		r.appContext = fn
	}
}
