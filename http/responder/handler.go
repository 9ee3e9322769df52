package responder

import (
	"net/http"

	"github.com/leeforge/pyracms/http/middleware"
)

type Option func(*Meta)

func WithTraceID(id string) Option {
	return func(m *Meta) {
		m.TraceId = id
	}
}

func WithTook(ms int64) Option {
	return func(m *Meta) {
		m.Took = ms
	}
}

// NewMeta builds response metadata from the request context, then applies
// opts on top.
func NewMeta(r *http.Request, opts ...Option) *Meta {
	meta := Meta{}
	if r != nil {
		meta.TraceId = middleware.GetTraceIDFromRequest(r)
		meta.Took = middleware.GetRequestDurationFromRequest(r)
	}
	for _, opt := range opts {
		opt(&meta)
	}
	return &meta
}
