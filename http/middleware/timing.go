package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/leeforge/pyracms/logging"
	"go.uber.org/zap"
)

type timingContextKey string

const StartTimeKey timingContextKey = "start_time"

// TimingMiddleware records the request start time; responses report the
// elapsed milliseconds as meta.took.
func TimingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), StartTimeKey, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs one line per request through the context logger.
func AccessLog() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			logger := logging.FromContext(r.Context())
			if status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

// GetRequestDuration returns milliseconds since TimingMiddleware saw the request.
func GetRequestDuration(ctx context.Context) int64 {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return time.Since(startTime).Milliseconds()
	}
	return 0
}

func GetRequestDurationFromRequest(r *http.Request) int64 {
	return GetRequestDuration(r.Context())
}
