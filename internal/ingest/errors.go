package ingest

import (
	"fmt"
	"net/http"

	"metricsgw/internal/models"
)

// ServiceError represents errors from the ingestion service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewAuthenticationError() *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeAuthenticationFailed,
		Message:    "invalid signature",
		StatusCode: http.StatusBadRequest,
	}
}

func NewPenalizedError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodePenalized,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewQuotaExceededError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeQuotaExceeded,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewSinkFailureError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeSinkFailure,
		Message:    "failed to persist batch",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
