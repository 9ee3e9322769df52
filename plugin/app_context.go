package plugin

import "go.uber.org/zap"

// AppContext is what the host hands to every lifecycle hook.
type AppContext struct {
	PluginID string
	Logger   *zap.Logger
	Settings SettingsProvider
	Services *ServiceRegistry
	Events   EventBus
}

// NewAppContext builds a context with no-op collaborators and the plugin's
// declared setting defaults.
func NewAppContext(p Plugin) *AppContext {
	return &AppContext{
		PluginID: p.ID(),
		Logger:   zap.NewNop(),
		Settings: NewSettings(p.Settings, nil),
		Services: NewServiceRegistry(),
	}
}

// Normalize fills nil collaborators so hooks never see a nil logger,
// settings provider or service registry.
func (a *AppContext) Normalize(p Plugin) *AppContext {
	if a == nil {
		return NewAppContext(p)
	}
	if a.PluginID == "" {
		a.PluginID = p.ID()
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Settings == nil {
		a.Settings = NewSettings(p.Settings, nil)
	}
	if a.Services == nil {
		a.Services = NewServiceRegistry()
	}
	return a
}
