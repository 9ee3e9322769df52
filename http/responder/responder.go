// Package responder writes the JSON envelope {data, error, meta} used by
// every host endpoint.
package responder

import (
	"net/http"

	apperrors "github.com/leeforge/pyracms/errors"
	"github.com/leeforge/pyracms/json"
	"go.uber.org/zap"
)

const encodeFailed = `{"error":{"code":"INTERNAL_ERROR","message":"encode failed"},"meta":{}}`

type Factory struct {
	converter *apperrors.ErrorConverter
	logger    *zap.Logger
}

type FactoryOption func(*Factory)

// WithErrorConverter sets how errors are mapped to status codes and payloads.
func WithErrorConverter(c *apperrors.ErrorConverter) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.converter = c
		}
	}
}

// WithLogger logs server-side failures (5xx and encoding errors).
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		converter: apperrors.NewErrorConverter(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) FromRequest(w http.ResponseWriter, r *http.Request) *Responder {
	return &Responder{w: w, r: r, f: f}
}

type Responder struct {
	w http.ResponseWriter
	r *http.Request
	f *Factory
}

func (r *Responder) writeJSON(status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.f.logger.Error("response encode failed", zap.Error(err))
		status, raw = http.StatusInternalServerError, []byte(encodeFailed)
	}
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(status)
	if _, err := r.w.Write(raw); err != nil {
		r.f.logger.Debug("response write failed", zap.Error(err))
	}
}

// Write sends a success response with data
func (r *Responder) Write(status int, payload any, opts ...Option) {
	r.writeJSON(status, &Response{Data: payload, Meta: *NewMeta(r.r, opts...)})
}

func (r *Responder) OK(data any, opts ...Option) {
	r.Write(http.StatusOK, data, opts...)
}

// WriteError sends an error response
func (r *Responder) WriteError(status int, e Error, opts ...Option) {
	r.writeJSON(status, &Response{Error: &e, Meta: *NewMeta(r.r, opts...)})
}

// Error converts err and writes it with the matching status.
func (r *Responder) Error(err error, opts ...Option) {
	resp := r.f.converter.ToHTTPResponse(err)
	if resp.HTTPStatus >= http.StatusInternalServerError {
		r.f.logger.Error("request failed",
			zap.String("method", r.r.Method),
			zap.String("path", r.r.URL.Path),
			zap.Error(err))
	}
	r.WriteError(resp.HTTPStatus, Error{
		Type:    resp.Error.Type,
		Code:    resp.Error.Code,
		Message: resp.Error.Message,
		Details: resp.Error.Details,
	}, opts...)
}

func (r *Responder) NotFound(message string, opts ...Option) {
	r.Error(apperrors.New(apperrors.ErrorTypeNotFound, message).
		WithCode(apperrors.CodeNotFound).
		WithHTTPStatus(http.StatusNotFound), opts...)
}
