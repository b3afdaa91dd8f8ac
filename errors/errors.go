package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error type handed to HTTP responders.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is kept for logs only and never serialized.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail entry and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError, deriving Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Unauthenticated is the single answer given for every token failure, so the
// response never tells a caller which check its token failed.
func Unauthenticated() *AppError {
	return New(ErrCodeUnauthenticated, "Authentication required.", http.StatusUnauthorized)
}

// Forbidden is returned only after authentication succeeded.
func Forbidden() *AppError {
	return New(ErrCodeForbidden, "You don't have permission to perform this action.", http.StatusForbidden)
}

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid username or password.", http.StatusUnauthorized)
}

// LockedOut reports a throttled account; retryAfter is surfaced in details.
func LockedOut(retryAfterSeconds int) *AppError {
	return New(ErrCodeLockedOut, "Too many failed login attempts. Please try again later.", http.StatusTooManyRequests).
		WithDetail("retry_after_seconds", retryAfterSeconds)
}

// RateLimited reports a client over its request budget.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Rate limit exceeded.", http.StatusTooManyRequests)
}

func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func UsernameTaken(username string) *AppError {
	return New(ErrCodeUsernameTaken, fmt.Sprintf("The username %q is already taken.", username), http.StatusConflict).
		WithDetail("username", username)
}

// Conflict reports a concurrent modification the caller may retry.
func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason, http.StatusConflict)
}

// Validation reports malformed request input.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// WeakPassword lists each password rule that failed.
func WeakPassword(failures []string) *AppError {
	return New(ErrCodeWeakPassword, "The password does not meet the password policy.", http.StatusBadRequest).
		WithDetail("rules", failures)
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.",
		http.StatusInternalServerError).WithCause(cause)
}

func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "A database error occurred. Please try again.",
		http.StatusInternalServerError).WithCause(cause)
}

func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}
