package errors

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// AppError is an error with a stable code and HTTP status that can be rendered
// to API consumers. Internal is logged, never sent; Fields are rendered next to
// the message.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Fields     map[string]any `json:"-"`
	Internal   error          `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches AppErrors by code, so a derived copy still satisfies errors.Is
// against the sentinel it came from.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

func (e *AppError) clone() *AppError {
	cpy := *e
	cpy.Fields = maps.Clone(e.Fields)
	return &cpy
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Internal = err
	return cpy
}

// WithMessage returns a copy with a more specific client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Message = message
	return cpy
}

// WithField returns a copy carrying an extra top-level response field.
func (e *AppError) WithField(key string, value any) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	if cpy.Fields == nil {
		cpy.Fields = make(map[string]any, 1)
	}
	cpy.Fields[key] = value
	return cpy
}

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Authentication failures share generic messages so callers cannot probe which
// sessions or accounts exist.
var (
	ErrNotAuthenticated   = New("AUTH_NOT_AUTHENTICATED", "Not authenticated", http.StatusUnauthorized)
	ErrSessionInvalid     = New("AUTH_SESSION_INVALID", "Session expired or invalid", http.StatusUnauthorized)
	ErrAccountNotFound    = New("AUTH_ACCOUNT_NOT_FOUND", "Account not found", http.StatusUnauthorized)
	ErrRoleConflict       = New("AUTH_ROLE_CONFLICT", "Role conflict detected", http.StatusUnauthorized)
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
)

var (
	ErrForbidden        = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrCSRFInvalid      = New("CSRF_INVALID", "Invalid CSRF token", http.StatusForbidden)
	ErrNotFound         = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest       = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrMethodNotAllowed = New("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed)
	ErrRateLimit        = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrPersistence      = New("PERSISTENCE_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrInternalServer   = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}
