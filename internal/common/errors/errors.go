// Package errors provides standardized error handling for the kitchen-hub agent.
package errors

import (
	goerrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Push channel / token lifecycle errors
const (
	ErrCodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	ErrCodeRegistrationFailed  ErrorCode = "REGISTRATION_FAILED"
	ErrCodeTokenExchangeFailed ErrorCode = "TOKEN_EXCHANGE_FAILED"

	ErrCodeNoToken         ErrorCode = "NO_TOKEN"
	ErrCodeBackendRejected ErrorCode = "BACKEND_REJECTED"

	ErrCodePollFailure ErrorCode = "POLL_FAILURE"

	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidPayload    ErrorCode = "INVALID_PAYLOAD"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeBackendTimeout   ErrorCode = "BACKEND_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HasCode reports whether err is (or wraps) a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewPermissionDeniedError creates a non-retryable permission error. The user
// declined the notification prompt; no retry without new user action.
func NewPermissionDeniedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePermissionDenied,
		Message:   "Notification permission not granted",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistrationFailedError creates a registration error. Fatal for this
// initialization attempt, safe to retry on next app foreground.
func NewRegistrationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistrationFailed,
		Message:   "Push channel registration failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenExchangeFailedError creates a native-only exchange error. Callers
// recover via fallback to the raw device token; this never reaches the user.
func NewTokenExchangeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenExchangeFailed,
		Message:   "Delivery token exchange failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoTokenError creates a non-retryable sync error for a missing token.
func NewNoTokenError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoToken,
		Message:   "No push token available for backend registration",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendRejectedError creates a sync-time backend rejection error.
func NewBackendRejectedError(statusCode int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendRejected,
		Message:   "Order backend rejected the request",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"statusCode": statusCode},
		Timestamp: time.Now().UTC(),
	}
}

// NewPollFailureError creates a retryable poll error. The polling loop
// continues; only the health indicator surfaces this.
func NewPollFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePollFailure,
		Message:   "Order feed poll failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable state machine error.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Status transition not defined",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError creates a non-retryable push payload error.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Push payload failed wire-contract validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable local store error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Local persistent store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a retryable backend timeout error.
func NewBackendTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendTimeout,
		Message:   "Order backend request timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether the error is safe to retry automatically.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodePermissionDenied, ErrCodeRegistrationFailed, ErrCodeTokenExchangeFailed:
		return "channel"
	case ErrCodeNoToken, ErrCodeBackendRejected:
		return "token_sync"
	case ErrCodePollFailure, ErrCodeBackendTimeout:
		return "feed"
	case ErrCodeInvalidTransition:
		return "status"
	case ErrCodeInvalidPayload:
		return "delivery"
	case ErrCodeStoreUnavailable:
		return "store"
	default:
		return "internal"
	}
}
