package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/pyracms/auth"
	"github.com/leeforge/pyracms/http/responder"
	"github.com/leeforge/pyracms/plugin"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

// PermissionManagePlugins is required to activate or deactivate plugins
// over HTTP.
const PermissionManagePlugins = "plugins.manage"

// Handlers serves the plugin admin API and the manifest the SPA renders from.
type Handlers struct {
	registry   *registry.Registry
	authorizer auth.Authorizer
	responders *responder.Factory
	logger     *zap.Logger
}

func NewHandlers(reg *registry.Registry, authorizer auth.Authorizer, responders *responder.Factory, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:   reg,
		authorizer: authorizer,
		responders: responders,
		logger:     logger.Named("api"),
	}
}

// Register mounts the endpoints below prefix, e.g. "/api".
func (h *Handlers) Register(r chi.Router, prefix string) {
	r.Get(prefix+"/plugins", h.listPlugins)
	r.Get(prefix+"/plugins/active", h.listActivePlugins)
	r.Get(prefix+"/plugins/{id}", h.getPlugin)
	r.Post(prefix+"/plugins/{id}/activate", h.activatePlugin)
	r.Post(prefix+"/plugins/{id}/deactivate", h.deactivatePlugin)

	r.Get(prefix+"/manifest/routes", h.manifestRoutes)
	r.Get(prefix+"/manifest/navigation", h.manifestNavigation)
	r.Get(prefix+"/manifest/models", h.manifestModels)
}

type pluginView struct {
	plugin.Plugin
	State plugin.State `json:"state"`
}

func (h *Handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.Entries()
	views := make([]pluginView, 0, len(entries))
	for _, e := range entries {
		views = append(views, pluginView{Plugin: e.Plugin, State: e.State})
	}
	h.responders.FromRequest(w, r).OK(views)
}

func (h *Handlers) listActivePlugins(w http.ResponseWriter, r *http.Request) {
	active := h.registry.ActivePlugins()
	views := make([]pluginView, 0, len(active))
	for _, p := range active {
		views = append(views, pluginView{Plugin: p, State: plugin.StateActive})
	}
	h.responders.FromRequest(w, r).OK(views)
}

func (h *Handlers) getPlugin(w http.ResponseWriter, r *http.Request) {
	h.writePlugin(w, r, chi.URLParam(r, "id"))
}

func (h *Handlers) writePlugin(w http.ResponseWriter, r *http.Request, id string) {
	res := h.responders.FromRequest(w, r)
	p, ok := h.registry.Plugin(id)
	if !ok {
		res.Error(&plugin.NotFoundError{ID: id})
		return
	}
	res.OK(pluginView{Plugin: p, State: h.registry.State(id)})
}

func (h *Handlers) activatePlugin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "activate", h.registry.Activate)
}

func (h *Handlers) deactivatePlugin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "deactivate", h.registry.Deactivate)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, action string, apply func(ctx context.Context, id string) error) {
	res := h.responders.FromRequest(w, r)
	subject := auth.SubjectFromContext(r.Context())
	if err := h.authorizer.Authorize(subject, true, []string{PermissionManagePlugins}); err != nil {
		res.Error(err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := apply(r.Context(), id); err != nil {
		res.Error(err)
		return
	}
	h.logger.Info("plugin "+action+"d over http",
		zap.String("plugin", id), zap.String("subject", subject.ID))
	h.writePlugin(w, r, id)
}

func (h *Handlers) manifestRoutes(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	routes := []plugin.Route{}
	for _, route := range h.registry.Routes() {
		if auth.Allowed(h.authorizer, subject, route.RequiresAuth, route.Permissions) {
			routes = append(routes, route)
		}
	}
	h.responders.FromRequest(w, r).OK(routes)
}

func (h *Handlers) manifestNavigation(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	items := []plugin.NavItem{}
	for _, item := range h.registry.Navigation() {
		if auth.Allowed(h.authorizer, subject, item.RequiresAuth, item.Permissions) {
			items = append(items, item)
		}
	}
	h.responders.FromRequest(w, r).OK(items)
}

func (h *Handlers) manifestModels(w http.ResponseWriter, r *http.Request) {
	models := h.registry.DataModels()
	if models == nil {
		models = []plugin.DataModel{}
	}
	h.responders.FromRequest(w, r).OK(models)
}
