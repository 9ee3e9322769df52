package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/leeforge/pyracms/errors"
	"github.com/leeforge/pyracms/http/responder"
	"github.com/leeforge/pyracms/plugin"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

// Dispatcher serves the API extensions of active plugins. Requests that match
// no extension go to the fallback handler.
type Dispatcher struct {
	dynamicMux
	responders *responder.Factory
	fallback   http.Handler
}

func NewDispatcher(reg *registry.Registry, responders *responder.Factory, fallback http.Handler, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{responders: responders, fallback: fallback}
	d.dynamicMux = dynamicMux{registry: reg, logger: logger.Named("dispatcher"), build: d.build}
	return d
}

func (d *Dispatcher) build(mux *chi.Mux) {
	routes := newRouteSet(mux, d.logger)
	for _, p := range d.registry.ActivePlugins() {
		for _, ext := range p.APIExtensions {
			_ = routes.mount(p.ID(), string(ext.Method), chiPattern(ext.Endpoint), d.serve(ext))
		}
	}
	mux.NotFound(d.fallback.ServeHTTP)
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		d.responders.FromRequest(w, r).Error(apperrors.New(apperrors.ErrorTypeValidation, "method not allowed").
			WithCode("METHOD_NOT_ALLOWED").
			WithHTTPStatus(http.StatusMethodNotAllowed))
	})
}

func (d *Dispatcher) serve(ext plugin.APIExtension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := d.responders.FromRequest(w, r)

		handler, err := ext.Handler.Get(r.Context())
		if err != nil {
			res.Error(apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "extension handler failed to load").
				WithCode(apperrors.CodeInternalError).
				WithHTTPStatus(http.StatusInternalServerError))
			return
		}
		data, err := handler(r.Context(), r)
		if err != nil {
			res.Error(err)
			return
		}
		res.OK(data)
	}
}
