// Package auth decides whether a request subject may see or use what a
// plugin contributes. Identity itself is established outside the host; auth
// only reads the subject that middleware put on the request context.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Subject is the caller a decision is made for. A zero ID is anonymous.
type Subject struct {
	ID    string   `json:"id,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

func (s Subject) Authenticated() bool { return s.ID != "" }

type subjectKey struct{}

func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// SubjectFromContext returns the subject stored in ctx, or the anonymous
// subject.
func SubjectFromContext(ctx context.Context) Subject {
	if s, ok := ctx.Value(subjectKey{}).(Subject); ok {
		return s
	}
	return Subject{}
}

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// HeaderSubject trusts X-User-ID and X-User-Roles (comma separated). Only
// mount it behind a proxy that sets those headers, or in development.
func HeaderSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := Subject{ID: strings.TrimSpace(r.Header.Get(HeaderUserID))}
		for _, role := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
			if role = strings.TrimSpace(role); role != "" {
				s.Roles = append(s.Roles, role)
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), s)))
	})
}
