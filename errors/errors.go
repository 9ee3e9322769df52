package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"

	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"

	// A plugin lifecycle hook returned an error.
	ErrorTypeHook ErrorType = "hook"

	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes carried in HTTP error responses.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeHookFailed       = "HOOK_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is matches another *AppError by type.
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError. Wrapped AppErrors are
// found through errors.As.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       CodeInternalError,
		Message:    err.Error(),
		InnerError: err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

func NewValidation(field, message string) *AppError {
	return New(ErrorTypeValidation, message).
		WithCode(CodeValidationFailed).
		WithDetail("field", field).
		WithHTTPStatus(http.StatusBadRequest)
}

func NewNotFound(resource string, id any) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource)).
		WithCode(CodeNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusNotFound)
}

func NewConflict(resource string, id any) *AppError {
	return New(ErrorTypeConflict, fmt.Sprintf("%s already exists", resource)).
		WithCode(CodeConflict).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusConflict)
}

func NewUnauthorized(message string) *AppError {
	return New(ErrorTypeUnauthorized, message).
		WithCode(CodeUnauthorized).
		WithHTTPStatus(http.StatusUnauthorized)
}

func NewForbidden(message string) *AppError {
	return New(ErrorTypeForbidden, message).
		WithCode(CodeForbidden).
		WithHTTPStatus(http.StatusForbidden)
}

// NewHook reports a failed lifecycle hook. The hook's own error stays
// reachable through Unwrap.
func NewHook(pluginID, hook string, err error) *AppError {
	return WrapWithType(err, ErrorTypeHook, fmt.Sprintf("plugin %s: %s hook failed", pluginID, hook)).
		WithCode(CodeHookFailed).
		WithDetail("plugin", pluginID).
		WithDetail("hook", hook).
		WithHTTPStatus(http.StatusInternalServerError)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).
		WithCode(CodeInternalError).
		WithHTTPStatus(http.StatusInternalServerError)
}

// Translator turns domain errors into AppErrors before conversion.
// It returns nil when it does not recognise the error.
type Translator func(error) *AppError

// ErrorConverter converts errors to HTTP responses
type ErrorConverter struct {
	translators []Translator
}

// NewErrorConverter creates a converter that tries translators in order
// before falling back to FromError.
func NewErrorConverter(translators ...Translator) *ErrorConverter {
	return &ErrorConverter{translators: translators}
}

// Convert resolves err to an AppError.
func (c *ErrorConverter) Convert(err error) *AppError {
	if err == nil {
		return nil
	}
	for _, translate := range c.translators {
		if appErr := translate(err); appErr != nil {
			return appErr
		}
	}
	return FromError(err)
}

// ToHTTPResponse converts an error to an HTTP response
func (c *ErrorConverter) ToHTTPResponse(err error) HTTPErrorResponse {
	appErr := c.Convert(err)

	response := HTTPErrorResponse{
		Error: ErrorResponse{
			Type:    string(appErr.Type),
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	}

	if len(appErr.Details) > 0 {
		response.Error.Details = appErr.Details
	}

	if appErr.HTTPStatus > 0 {
		response.HTTPStatus = appErr.HTTPStatus
	} else {
		response.HTTPStatus = http.StatusInternalServerError
	}

	return response
}

// HTTPErrorResponse represents an HTTP error response
type HTTPErrorResponse struct {
	HTTPStatus int           `json:"-"`
	Error      ErrorResponse `json:"error"`
}

// ErrorResponse represents the error part of an HTTP response
type ErrorResponse struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Format renders an error on one line for logs.
func Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)
	parts := []string{fmt.Sprintf("[%s] %s", appErr.Type, appErr.Message)}
	if appErr.Code != "" {
		parts = append(parts, "code="+appErr.Code)
	}
	if appErr.InnerError != nil {
		parts = append(parts, "caused_by: "+appErr.InnerError.Error())
	}
	return strings.Join(parts, " | ")
}
