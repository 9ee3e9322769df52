// Package runtime composes the host: it owns the plugin registry, the event
// bus and the per-plugin hook context, and drives config-based startup and
// shutdown.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/leeforge/pyracms/config"
	"github.com/leeforge/pyracms/logging"
	"github.com/leeforge/pyracms/plugin"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

// Config holds configuration for creating a new Runtime.
type Config struct {
	Logger      *zap.Logger
	EventBuffer int // default 1024
	// Plugins is the host's per-plugin config, keyed by plugin id.
	Plugins map[string]config.PluginConfig
	// ShutdownTimeout bounds deactivation during Shutdown. Default 30s.
	ShutdownTimeout time.Duration
}

// Runtime manages plugin lifecycle for the host process.
type Runtime struct {
	logger   *zap.Logger
	registry *registry.Registry
	eventBus *eventBus
	services *plugin.ServiceRegistry

	mu           sync.RWMutex
	pluginConfig map[string]config.PluginConfig
	pluginErrors map[string]error

	shutdownTimeout time.Duration
}

func NewRuntime(cfg Config) *Runtime {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	rt := &Runtime{
		logger:          cfg.Logger.Named("runtime"),
		eventBus:        NewEventBus(cfg.EventBuffer, cfg.Logger),
		services:        plugin.NewServiceRegistry(),
		pluginConfig:    clonePluginConfig(cfg.Plugins),
		pluginErrors:    make(map[string]error),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	rt.registry = registry.New(
		registry.WithLogger(cfg.Logger),
		registry.WithEventBus(rt.eventBus),
		registry.WithAppContext(rt.appContext),
	)
	return rt
}

func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Services returns the registry plugins use to share services.
func (r *Runtime) Services() *plugin.ServiceRegistry { return r.services }

func (r *Runtime) Events() plugin.EventBus { return r.eventBus }

// Register installs p: it is added to the registry and its OnInstall hook
// runs. Plugin state is not persisted, so every process start installs.
func (r *Runtime) Register(ctx context.Context, p plugin.Plugin) error {
	return r.registry.Install(ctx, p)
}

// Bootstrap activates every registered plugin enabled in config, in
// registration order. A failing optional plugin is logged and skipped; any
// other failure aborts.
func (r *Runtime) Bootstrap(ctx context.Context) error {
	startTime := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	activated := 0
	for _, p := range r.registry.Plugins() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bootstrap canceled: %w", err)
		}
		id := p.ID()
		cfg := r.configFor(id)
		if !cfg.Enabled {
			r.logger.Info("plugin not enabled, skipping", zap.String("plugin", id))
			continue
		}
		if err := r.activate(ctx, p, cfg); err != nil {
			if abortErr := r.handlePluginError(id, cfg, err); abortErr != nil {
				return abortErr
			}
			continue
		}
		r.clearPluginError(id)
		activated++
	}

	r.logger.Info("bootstrap completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("plugins", len(r.registry.Plugins())),
		zap.Int("active", activated),
	)
	return nil
}

// Reconcile applies a new plugin config: newly enabled plugins are
// activated, newly disabled ones deactivated. All failures are returned
// together.
func (r *Runtime) Reconcile(ctx context.Context, plugins map[string]config.PluginConfig) error {
	r.mu.Lock()
	r.pluginConfig = clonePluginConfig(plugins)
	r.mu.Unlock()

	var errs []error
	for _, p := range r.registry.Plugins() {
		id := p.ID()
		cfg := r.configFor(id)
		active := r.registry.IsActive(id)

		var err error
		switch {
		case cfg.Enabled && !active:
			err = r.activate(ctx, p, cfg)
		case !cfg.Enabled && active:
			err = r.registry.Deactivate(ctx, id)
		default:
			continue
		}
		if err != nil {
			r.setPluginError(id, err)
			errs = append(errs, err)
			continue
		}
		r.clearPluginError(id)
	}

	r.logger.Info("plugin config reconciled", zap.Int("failures", len(errs)))
	return errors.Join(errs...)
}

// Shutdown deactivates active plugins in reverse registration order, then
// drains the event bus.
func (r *Runtime) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, r.shutdownTimeout)
	defer cancel()

	active := r.registry.ActivePlugins()
	for i := len(active) - 1; i >= 0; i-- {
		id := active[i].ID()
		if err := r.registry.Deactivate(shutdownCtx, id); err != nil {
			r.logger.Error("plugin deactivate failed",
				zap.String("plugin", id), zap.Error(err))
		}
	}

	r.eventBus.Close()

	r.logger.Info("shutdown completed")
	return nil
}

// Publish sends an event through the event bus.
func (r *Runtime) Publish(ctx context.Context, event plugin.Event) error {
	return r.eventBus.Publish(ctx, event)
}

// PluginErrors returns the last activation error per plugin.
func (r *Runtime) PluginErrors() map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]error, len(r.pluginErrors))
	for k, v := range r.pluginErrors {
		result[k] = v
	}
	return result
}

// --- Internal ---

func (r *Runtime) appContext(p plugin.Plugin) *plugin.AppContext {
	id := p.ID()
	logger := logging.ForPlugin(r.logger, id)

	settings := plugin.NewSettings(p.Settings, r.configFor(id).Settings)
	if err := settings.Validate(); err != nil {
		logger.Warn("ignoring invalid setting overrides", zap.Error(err))
	}

	return &plugin.AppContext{
		PluginID: id,
		Logger:   logger,
		Settings: settings,
		Services: r.services,
		Events:   r.eventBus,
	}
}

// activate checks the configured version constraint, then activates.
func (r *Runtime) activate(ctx context.Context, p plugin.Plugin, cfg config.PluginConfig) error {
	if err := checkVersion(p, cfg.Version); err != nil {
		return err
	}
	return r.registry.Activate(ctx, p.ID())
}

func checkVersion(p plugin.Plugin, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("plugin %q: invalid version constraint %q: %w", p.ID(), constraint, err)
	}
	v, err := semver.NewVersion(p.Metadata.Version)
	if err != nil {
		return fmt.Errorf("plugin %q: %w", p.ID(), err)
	}
	if ok, reasons := c.Validate(v); !ok {
		return fmt.Errorf("plugin %q version %s does not satisfy %q: %w", p.ID(), v, constraint, errors.Join(reasons...))
	}
	return nil
}

func (r *Runtime) configFor(id string) config.PluginConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pluginConfig[id]
}

func (r *Runtime) handlePluginError(id string, cfg config.PluginConfig, err error) error {
	r.setPluginError(id, err)

	if cfg.Optional {
		r.logger.Warn("optional plugin failed, continuing",
			zap.String("plugin", id), zap.Error(err))
		return nil
	}
	return fmt.Errorf("required plugin %q failed: %w", id, err)
}

func (r *Runtime) setPluginError(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pluginErrors[id] = err
}

func (r *Runtime) clearPluginError(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pluginErrors, id)
}

func clonePluginConfig(in map[string]config.PluginConfig) map[string]config.PluginConfig {
	out := make(map[string]config.PluginConfig, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
