package server

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/pyracms/registry"
	"go.uber.org/zap"
)

// dynamicMux caches a chi mux built from the registry and rebuilds it when
// the registry revision moves.
type dynamicMux struct {
	registry *registry.Registry
	build    func(mux *chi.Mux)
	logger   *zap.Logger

	mu       sync.Mutex
	revision uint64
	mux      *chi.Mux
}

func (d *dynamicMux) current() *chi.Mux {
	rev := d.registry.Revision()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mux != nil && d.revision == rev {
		return d.mux
	}
	mux := chi.NewRouter()
	d.build(mux)
	d.mux, d.revision = mux, rev
	return mux
}

// ServeHTTP routes on a fresh chi context; the outer router's failed match
// must not leak into this one.
func (d *dynamicMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext())
	d.current().ServeHTTP(w, r.WithContext(ctx))
}

// routeSet mounts handlers on one mux build. The first plugin to claim a
// method and path shape keeps it; later claims are logged and skipped.
type routeSet struct {
	mux    *chi.Mux
	logger *zap.Logger
	seen   map[string]string
}

func newRouteSet(mux *chi.Mux, logger *zap.Logger) *routeSet {
	return &routeSet{mux: mux, logger: logger, seen: make(map[string]string)}
}

// mount registers h for method (any method when empty) on a chi pattern.
// chi panics on patterns it cannot merge; that is reported as an error too.
func (s *routeSet) mount(owner, method, pattern string, h http.HandlerFunc) (err error) {
	key := method + " " + paramShape.ReplaceAllString(pattern, "{}")
	if prev, taken := s.seen[key]; taken {
		err = fmt.Errorf("%s already served by plugin %s", key, prev)
		s.logger.Warn("skipping conflicting route", zap.String("plugin", owner), zap.Error(err))
		return err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
			s.logger.Warn("skipping conflicting route",
				zap.String("plugin", owner), zap.String("pattern", pattern), zap.Error(err))
		}
	}()
	if method == "" {
		s.mux.HandleFunc(pattern, h)
	} else {
		s.mux.MethodFunc(method, pattern, h)
	}
	s.seen[key] = owner
	return nil
}

var paramShape = regexp.MustCompile(`\{[^}]*\}`)
