package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/pyracms/auth"
	apperrors "github.com/leeforge/pyracms/errors"
	"github.com/leeforge/pyracms/http/responder"
	"github.com/leeforge/pyracms/plugin"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

// PageRouter mounts the routes of active plugins. A route's component is
// loaded the first time the route is served, after the authorizer has
// accepted the caller.
type PageRouter struct {
	dynamicMux
	authorizer auth.Authorizer
	responders *responder.Factory
}

func NewPageRouter(reg *registry.Registry, authorizer auth.Authorizer, responders *responder.Factory, logger *zap.Logger) *PageRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PageRouter{authorizer: authorizer, responders: responders}
	p.dynamicMux = dynamicMux{registry: reg, logger: logger.Named("pages"), build: p.build}
	return p
}

func (p *PageRouter) build(mux *chi.Mux) {
	routes := newRouteSet(mux, p.logger)
	for _, owner := range p.registry.ActivePlugins() {
		for _, route := range owner.Routes {
			_ = routes.mount(owner.ID(), "", chiPattern(route.Path), p.serve(route))
		}
	}
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.responders.FromRequest(w, r).NotFound("page not found")
	})
}

func (p *PageRouter) serve(route plugin.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		if err := p.authorizer.Authorize(subject, route.RequiresAuth, route.Permissions); err != nil {
			p.responders.FromRequest(w, r).Error(err)
			return
		}

		handler, err := route.Component.Get(r.Context())
		if err != nil {
			p.responders.FromRequest(w, r).Error(
				apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "page failed to load").
					WithCode(apperrors.CodeInternalError).
					WithHTTPStatus(http.StatusInternalServerError))
			return
		}
		handler.ServeHTTP(w, r)
	}
}
