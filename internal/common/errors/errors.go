// Package errors provides standardized error handling for the ranking core.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRetrievalFailed         ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeRetrievalTimeout        ErrorCode = "RETRIEVAL_TIMEOUT"
	ErrCodeElasticsearchConnection ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeIndexNotFound           ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeScoringFailed ErrorCode = "SCORING_FAILED"

	ErrCodePredictionUnavailable ErrorCode = "PREDICTION_UNAVAILABLE"
	ErrCodePredictorNotReady     ErrorCode = "PREDICTOR_NOT_READY"
	ErrCodeModelLoadFailed       ErrorCode = "MODEL_LOAD_FAILED"

	ErrCodeShadowFlushFailed ErrorCode = "SHADOW_FLUSH_FAILED"
	ErrCodeEventSinkFailed   ErrorCode = "EVENT_SINK_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
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

// HTTPStatus maps an error code to the status returned by the service.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeRetrievalTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeRetrievalFailed, ErrCodeElasticsearchConnection, ErrCodeIndexNotFound:
		return http.StatusBadGateway
	case ErrCodePredictorNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// --- Constructors ---

// NewRetrievalFailedError wraps a failed retrieval leg. Retrieval failure is
// fatal for the request, never partially fused.
func NewRetrievalFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailed,
		Message:   "Candidate retrieval failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalTimeoutError marks a retrieval leg that exceeded its deadline.
func NewRetrievalTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalTimeout,
		Message:   "Candidate retrieval timed out",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError marks a malformed search request.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid search request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelLoadFailedError marks a predictor artifact that could not be
// loaded at startup. The predictor instance must report not-ready.
func NewModelLoadFailedError(artifact string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelLoadFailed,
		Message:   fmt.Sprintf("Failed to load predictor artifact %q", artifact),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictorNotReadyError marks a predictor serving before its artifacts
// loaded.
func NewPredictorNotReadyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictorNotReady,
		Message:   "Trajectory predictor is not ready",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewShadowFlushFailedError wraps a failed shadow batch flush. These are
// swallowed by the harness and retried on the next cycle.
func NewShadowFlushFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeShadowFlushFailed,
		Message:   "Shadow comparison flush failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventSinkFailedError wraps a failed selection-event emit. Emission is
// fire-and-forget, so callers log and drop.
func NewEventSinkFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventSinkFailed,
		Message:   "Selection event emit failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures any error is represented as a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}
