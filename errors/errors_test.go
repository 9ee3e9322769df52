package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsSetStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"validation", NewValidation("metadata.id", "id is required"), http.StatusBadRequest, CodeValidationFailed},
		{"not found", NewNotFound("plugin", "forum"), http.StatusNotFound, CodeNotFound},
		{"conflict", NewConflict("plugin", "forum"), http.StatusConflict, CodeConflict},
		{"unauthorized", NewUnauthorized("login required"), http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", NewForbidden("no"), http.StatusForbidden, CodeForbidden},
		{"hook", NewHook("forum", "onActivate", errors.New("boom")), http.StatusInternalServerError, CodeHookFailed},
		{"internal", NewInternal("oops"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
		})
	}
}

func TestHookErrorUnwraps(t *testing.T) {
	cause := errors.New("database offline")
	err := NewHook("forum", "onActivate", cause)

	if !errors.Is(err, cause) {
		t.Fatal("hook AppError should unwrap to its cause")
	}
	if err.Details["plugin"] != "forum" {
		t.Errorf("plugin detail = %v, want forum", err.Details["plugin"])
	}
}

func TestFromErrorFindsWrappedAppError(t *testing.T) {
	inner := NewNotFound("plugin", "blog")
	wrapped := fmt.Errorf("activate: %w", inner)

	if got := FromError(wrapped); got != inner {
		t.Fatalf("FromError should return the wrapped AppError, got %+v", got)
	}
	if FromError(nil) != nil {
		t.Fatal("FromError(nil) should be nil")
	}
}

func TestFromErrorPlainError(t *testing.T) {
	got := FromError(errors.New("plain"))
	if got.Type != ErrorTypeUnknown {
		t.Errorf("Type = %q, want unknown", got.Type)
	}
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", got.HTTPStatus)
	}
}

func TestErrorConverterUsesTranslators(t *testing.T) {
	sentinel := errors.New("missing")
	c := NewErrorConverter(
		func(err error) *AppError { return nil },
		func(err error) *AppError {
			if errors.Is(err, sentinel) {
				return NewNotFound("plugin", "x")
			}
			return nil
		},
	)

	resp := c.ToHTTPResponse(fmt.Errorf("lookup: %w", sentinel))
	if resp.HTTPStatus != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d, want 404", resp.HTTPStatus)
	}
	if resp.Error.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q", resp.Error.Code, CodeNotFound)
	}

	resp = c.ToHTTPResponse(errors.New("other"))
	if resp.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("fallback HTTPStatus = %d, want 500", resp.HTTPStatus)
	}
}

func TestAppErrorIsMatchesType(t *testing.T) {
	if !errors.Is(NewConflict("plugin", "a"), New(ErrorTypeConflict, "")) {
		t.Error("conflict errors should match by type")
	}
	if errors.Is(NewConflict("plugin", "a"), New(ErrorTypeNotFound, "")) {
		t.Error("conflict should not match not_found")
	}
}

func TestFormat(t *testing.T) {
	got := Format(NewHook("forum", "onDeactivate", errors.New("boom")))
	want := "[hook] plugin forum: onDeactivate hook failed | code=HOOK_FAILED | caused_by: boom"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
}
