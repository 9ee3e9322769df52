// Package registry tracks which plugins are known to the host and which of
// them are active, runs their lifecycle hooks and aggregates what active
// plugins contribute.
//
// State lives only for the process lifetime. The composition root owns the
// one shared Registry; tests build their own.
package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/pyracms/logging"
	"github.com/leeforge/pyracms/plugin"
	"go.uber.org/zap"
)

type entry struct {
	plugin plugin.Plugin
	// gen changes on every registration of the id, so a hook that outlives
	// an unregister cannot resurrect the plugin.
	gen uint64
}

type Registry struct {
	mu      sync.RWMutex
	order   []string
	catalog map[string]entry
	active  map[string]bool
	nextGen uint64

	revision atomic.Uint64

	locksMu sync.Mutex
	locks   map[string]*idLock

	logger     *zap.Logger
	events     plugin.EventBus
	appContext func(p plugin.Plugin) *plugin.AppContext
}

func New(opts ...Option) *Registry {
	r := &Registry{
		catalog: make(map[string]entry),
		active:  make(map[string]bool),
		locks:   make(map[string]*idLock),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("registry")
	return r
}

// Register adds p to the catalog. It fails with *plugin.DuplicateRegistrationError
// when the id is already known.
func (r *Registry) Register(p plugin.Plugin) error {
	if _, err := r.register(p); err != nil {
		return err
	}
	r.publish(context.Background(), plugin.TopicRegistered, p, plugin.StateRegistered)
	return nil
}

func (r *Registry) register(p plugin.Plugin) (uint64, error) {
	id := p.ID()
	if id == "" {
		return 0, &plugin.ValidationError{Field: "metadata.id", Message: "is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.catalog[id]; exists {
		return 0, &plugin.DuplicateRegistrationError{ID: id}
	}
	r.nextGen++
	r.catalog[id] = entry{plugin: p.Clone(), gen: r.nextGen}
	r.order = append(r.order, id)
	r.revision.Add(1)

	r.logger.Info("plugin registered",
		zap.String("plugin", id), zap.String("version", p.Metadata.Version))
	return r.nextGen, nil
}

// Unregister forgets the plugin. Unknown ids are ignored. An active plugin
// is dropped from the active set without running OnDeactivate; use
// Uninstall for a clean teardown.
func (r *Registry) Unregister(id string) {
	p, wasActive, ok := r.remove(id, 0)
	if !ok {
		return
	}
	if wasActive {
		r.logger.Info("active plugin unregistered without deactivation", zap.String("plugin", id))
	} else {
		r.logger.Info("plugin unregistered", zap.String("plugin", id))
	}
	r.publish(context.Background(), plugin.TopicUnregistered, p, plugin.StateUnregistered)
}

// remove deletes id from the catalog. A non-zero gen only removes the entry
// from that registration.
func (r *Registry) remove(id string, gen uint64) (plugin.Plugin, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.catalog[id]
	if !ok || (gen != 0 && e.gen != gen) {
		return plugin.Plugin{}, false, false
	}
	wasActive := r.active[id]
	delete(r.catalog, id)
	delete(r.active, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	r.revision.Add(1)
	return e.plugin, wasActive, true
}

// Activate runs OnActivate and, once it succeeds, marks the plugin active.
// A failing hook leaves the active set unchanged and is returned as a
// *plugin.HookError. Activating an active plugin does nothing.
func (r *Registry) Activate(ctx context.Context, id string) error {
	unlock := r.lockID(id)
	defer unlock()
	return r.activate(ctx, id)
}

func (r *Registry) activate(ctx context.Context, id string) error {
	e, active, ok := r.lookup(id)
	if !ok {
		return &plugin.NotFoundError{ID: id}
	}
	if active {
		return nil
	}

	if err := r.runHook(ctx, e.plugin, plugin.HookActivate); err != nil {
		return err
	}

	r.mu.Lock()
	if cur, ok := r.catalog[id]; !ok || cur.gen != e.gen {
		r.mu.Unlock()
		r.logger.Warn("plugin unregistered during activation, result discarded", zap.String("plugin", id))
		return &plugin.NotFoundError{ID: id}
	}
	r.active[id] = true
	r.revision.Add(1)
	r.mu.Unlock()

	r.logger.Info("plugin activated", zap.String("plugin", id))
	r.publish(ctx, plugin.TopicActivated, e.plugin, plugin.StateActive)
	return nil
}

// Deactivate runs OnDeactivate and, once it succeeds, removes the plugin
// from the active set. The hook runs for any registered plugin; the
// active set and revision only change when the plugin was active.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	unlock := r.lockID(id)
	defer unlock()
	return r.deactivate(ctx, id)
}

func (r *Registry) deactivate(ctx context.Context, id string) error {
	e, active, ok := r.lookup(id)
	if !ok {
		return &plugin.NotFoundError{ID: id}
	}
	if err := r.runHook(ctx, e.plugin, plugin.HookDeactivate); err != nil {
		return err
	}
	if !active {
		return nil
	}

	r.mu.Lock()
	if cur, ok := r.catalog[id]; ok && cur.gen == e.gen {
		delete(r.active, id)
		r.revision.Add(1)
	}
	r.mu.Unlock()

	r.logger.Info("plugin deactivated", zap.String("plugin", id))
	r.publish(ctx, plugin.TopicDeactivated, e.plugin, plugin.StateRegistered)
	return nil
}

// Install registers p and runs OnInstall. When the hook fails the
// registration is rolled back.
func (r *Registry) Install(ctx context.Context, p plugin.Plugin) error {
	unlock := r.lockID(p.ID())
	defer unlock()

	gen, err := r.register(p)
	if err != nil {
		return err
	}
	if err := r.runHook(ctx, p, plugin.HookInstall); err != nil {
		r.remove(p.ID(), gen)
		return err
	}

	r.logger.Info("plugin installed", zap.String("plugin", p.ID()))
	r.publish(ctx, plugin.TopicInstalled, p, plugin.StateRegistered)
	return nil
}

// Uninstall deactivates the plugin if needed, runs OnUninstall and then
// unregisters it. Any hook failure stops the sequence and leaves the plugin
// registered.
func (r *Registry) Uninstall(ctx context.Context, id string) error {
	unlock := r.lockID(id)
	defer unlock()

	if err := r.deactivate(ctx, id); err != nil {
		return err
	}
	e, _, ok := r.lookup(id)
	if !ok {
		return &plugin.NotFoundError{ID: id}
	}
	if err := r.runHook(ctx, e.plugin, plugin.HookUninstall); err != nil {
		return err
	}
	r.remove(id, e.gen)

	r.logger.Info("plugin uninstalled", zap.String("plugin", id))
	r.publish(ctx, plugin.TopicUninstalled, e.plugin, plugin.StateUnregistered)
	return nil
}

func (r *Registry) lookup(id string) (entry, bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.catalog[id]
	return e, r.active[id], ok
}

// idLock is dropped from Registry.locks once its last holder releases it.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// lockID serialises lifecycle transitions of one id.
func (r *Registry) lockID(id string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &idLock{}
		r.locks[id] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.locksMu.Unlock()
	}
}

func (r *Registry) runHook(ctx context.Context, p plugin.Plugin, name string) error {
	hook := p.Hooks.Hook(name)
	if hook == nil {
		return nil
	}

	var app *plugin.AppContext
	if r.appContext != nil {
		app = r.appContext(p)
	}
	if app == nil {
		app = &plugin.AppContext{
			Logger: logging.ForPlugin(r.logger, p.ID()),
			Events: r.events,
		}
	}
	app = app.Normalize(p)

	if err := hook(ctx, app); err != nil {
		r.logger.Warn("plugin hook failed",
			zap.String("plugin", p.ID()), zap.String("hook", name), zap.Error(err))
		return &plugin.HookError{ID: p.ID(), Hook: name, Err: err}
	}
	return nil
}

func (r *Registry) publish(ctx context.Context, topic string, p plugin.Plugin, state plugin.State) {
	if r.events == nil {
		return
	}
	err := r.events.Publish(ctx, plugin.Event{
		ID:        uuid.NewString(),
		Name:      topic,
		Source:    p.ID(),
		Timestamp: time.Now(),
		Data: plugin.LifecycleEvent{
			PluginID: p.ID(),
			Version:  p.Metadata.Version,
			State:    state,
		},
	})
	if err != nil {
		r.logger.Warn("lifecycle event not published",
			zap.String("topic", topic), zap.String("plugin", p.ID()), zap.Error(err))
	}
}

// Plugin returns a copy of the registered plugin.
func (r *Registry) Plugin(id string) (plugin.Plugin, bool) {
	e, _, ok := r.lookup(id)
	if !ok {
		return plugin.Plugin{}, false
	}
	return e.plugin.Clone(), true
}

// Plugins returns every registered plugin in registration order.
func (r *Registry) Plugins() []plugin.Plugin {
	return r.collect(false)
}

// ActivePlugins returns the active plugins in registration order.
func (r *Registry) ActivePlugins() []plugin.Plugin {
	return r.collect(true)
}

func (r *Registry) collect(activeOnly bool) []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Plugin, 0, len(r.order))
	for _, id := range r.order {
		if activeOnly && !r.active[id] {
			continue
		}
		out = append(out, r.catalog[id].plugin.Clone())
	}
	return out
}

// Entry pairs a plugin with its state at snapshot time.
type Entry struct {
	Plugin plugin.Plugin
	State  plugin.State
}

// Entries returns every registered plugin with its state, in registration
// order, from a single snapshot.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		state := plugin.StateRegistered
		if r.active[id] {
			state = plugin.StateActive
		}
		out = append(out, Entry{Plugin: r.catalog[id].plugin.Clone(), State: state})
	}
	return out
}

func (r *Registry) State(id string) plugin.State {
	_, active, ok := r.lookup(id)
	switch {
	case !ok:
		return plugin.StateUnregistered
	case active:
		return plugin.StateActive
	default:
		return plugin.StateRegistered
	}
}

func (r *Registry) IsActive(id string) bool {
	_, active, _ := r.lookup(id)
	return active
}

// Revision increases on every change to the catalog or the active set.
func (r *Registry) Revision() uint64 {
	return r.revision.Load()
}

// Routes aggregates the routes of active plugins.
func (r *Registry) Routes() []plugin.Route {
	var out []plugin.Route
	for _, p := range r.ActivePlugins() {
		out = append(out, p.Routes...)
	}
	return out
}

// Navigation aggregates the navigation of active plugins, sorted by Order.
// Equal orders keep registration order.
func (r *Registry) Navigation() []plugin.NavItem {
	var out []plugin.NavItem
	for _, p := range r.ActivePlugins() {
		out = append(out, p.Navigation...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (r *Registry) DataModels() []plugin.DataModel {
	var out []plugin.DataModel
	for _, p := range r.ActivePlugins() {
		out = append(out, p.DataModels...)
	}
	return out
}

func (r *Registry) APIExtensions() []plugin.APIExtension {
	var out []plugin.APIExtension
	for _, p := range r.ActivePlugins() {
		out = append(out, p.APIExtensions...)
	}
	return out
}
