// Package middleware holds the HTTP middleware shared by every host route.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/leeforge/pyracms/logging"
	"go.uber.org/zap"
)

type contextKey string

const (
	TraceIDKey    contextKey = "trace_id"
	TraceIDHeader            = "X-Trace-ID"
)

// TraceIDMiddleware reuses an incoming X-Trace-ID or generates one, echoes it
// on the response and stores it in the request context.
func TraceIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			w.Header().Set(TraceIDHeader, traceID)

			ctx := context.WithValue(r.Context(), TraceIDKey, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextLogger stores base, tagged with the request's trace id, in the
// request context for logging.FromContext. Mount it after TraceIDMiddleware.
func ContextLogger(base *zap.Logger) func(next http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base
			if id := GetTraceIDFromRequest(r); id != "" {
				logger = base.With(zap.String("trace_id", id))
			}
			next.ServeHTTP(w, r.WithContext(logging.ToContext(r.Context(), logger)))
		})
	}
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetTraceIDFromRequest(r *http.Request) string {
	return GetTraceID(r.Context())
}
