// Package errors provides the normalized error shape for every REST and chat
// failure surfaced by the taskhub client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrUnauthorized      = errors.New("session expired")
	ErrForbidden         = errors.New("access denied")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNetwork           = errors.New("network error")
	ErrUnavailable       = errors.New("service unavailable")
	ErrMalformedResponse = errors.New("malformed response body")
	ErrNotConnected      = errors.New("chat transport is not connected")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// NetworkMessage is the message every transport-level failure is normalized to.
const NetworkMessage = "network error"

// APIError is the uniform failure shape {message, statusCode, fieldErrors}.
// StatusCode 0 means no response was received.
type APIError struct {
	Message     string
	StatusCode  int
	FieldErrors map[string][]string
	Err         error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps the status code onto the package sentinels so callers can use
// errors.Is(err, ErrForbidden) without inspecting codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrNetwork:
		return e.StatusCode == 0
	case ErrUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// NewAPIError creates a new API error.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// NewNetworkError wraps a transport failure where no response was received.
func NewNetworkError(err error) *APIError {
	return &APIError{Message: NetworkMessage, StatusCode: 0, Err: err}
}

// StatusCode returns the HTTP status carried by err, or -1 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return -1
}

// Message returns the user-facing message of err, falling back when it has none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// IsForbidden reports the authorization-denied class: a 403, or any error whose
// message mentions permission. Fetches suppress the toast for this class.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrForbidden) {
		return true
	}
	return strings.Contains(strings.ToLower(Message(err, "")), "permission")
}

// IsSessionExpired reports a 401 response.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsMalformed reports a successful response whose body could not be decoded.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsNetwork reports a failure where no response was received.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsRetryable returns true if the error is likely transient.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 0, 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotConnected)
}
