// Package server is the HTTP surface of the host: the plugin admin API,
// the manifest endpoints, plugin pages and plugin API extensions.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/leeforge/pyracms/auth"
	"github.com/leeforge/pyracms/config"
	"github.com/leeforge/pyracms/http/middleware"
	"github.com/leeforge/pyracms/http/responder"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

type Options struct {
	APIPrefix  string
	Registry   *registry.Registry
	Authorizer auth.Authorizer
	Logger     *zap.Logger
	// Subject identifies the caller. Without it every request is anonymous.
	Subject func(http.Handler) http.Handler
}

// NewRouter wires the middleware stack and every host endpoint. Requests not
// matched by the admin API go to plugin API extensions, then plugin pages.
func NewRouter(opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Authorizer == nil {
		opts.Authorizer = auth.AllowAll{}
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	responders := responder.NewFactory(
		responder.WithErrorConverter(NewErrorConverter()),
		responder.WithLogger(opts.Logger.Named("http")),
	)

	r := chi.NewRouter()
	r.Use(
		middleware.TraceIDMiddleware(),
		middleware.TimingMiddleware(),
		middleware.ContextLogger(opts.Logger.Named("http")),
		middleware.AccessLog(),
		chimw.Recoverer,
	)
	if opts.Subject != nil {
		r.Use(opts.Subject)
	}

	NewHandlers(opts.Registry, opts.Authorizer, responders, opts.Logger).Register(r, prefix)

	pages := NewPageRouter(opts.Registry, opts.Authorizer, responders, opts.Logger)
	dispatcher := NewDispatcher(opts.Registry, responders, pages, opts.Logger)
	r.NotFound(dispatcher.ServeHTTP)
	r.MethodNotAllowed(dispatcher.ServeHTTP)

	return r
}

// Server runs the router on an http.Server.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func New(cfg config.ServerConfig, opts Options) *Server {
	if opts.APIPrefix == "" {
		opts.APIPrefix = cfg.APIPrefix
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		http:   &http.Server{Addr: cfg.Addr, Handler: NewRouter(opts)},
		logger: opts.Logger.Named("server"),
	}
}

func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
