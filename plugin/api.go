package plugin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Method is the HTTP method of an API extension.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodPatch  Method = http.MethodPatch
)

func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	default:
		return false
	}
}

func (m *Method) UnmarshalText(text []byte) error {
	v := Method(strings.ToUpper(string(text)))
	if !v.Valid() {
		return fmt.Errorf("unsupported method %q", string(text))
	}
	*m = v
	return nil
}

// HandlerFunc serves an API extension. The returned value is written as the
// response data.
type HandlerFunc func(ctx context.Context, r *http.Request) (any, error)

// APIExtension declares an endpoint served by the host's dispatcher. The
// registry stores it but never calls Handler.
type APIExtension struct {
	Endpoint string             `json:"endpoint"`
	Method   Method             `json:"method"`
	Handler  *Lazy[HandlerFunc] `json:"-"`
}
