// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes alongside human-readable messages
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// IngestResponse reports a successfully persisted batch.
type IngestResponse struct {
	Status    string `json:"status"`    // Always "ok" on success
	Inserted  int    `json:"inserted"`  // Number of records persisted
	Remaining int64  `json:"remaining"` // Reservoir balance after this batch
}

// ReadyResponse is returned by the root endpoint as a liveness greeting.
type ReadyResponse struct {
	Status string `json:"status"`
}

// ErrorResponse provides structured error information with debugging context.
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Error codes surfaced to clients. Authentication, penalty, and quota failures
// are per-request outcomes a client can recover from; sink failures are
// server-side and the batch's quota has already been spent.
const (
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"       // 400: Malformed batch payload
	ErrorCodeAuthenticationFailed = "AUTHENTICATION_FAILED" // 400: Signature missing/mismatched
	ErrorCodePenalized            = "PENALIZED"             // 429: Key under a penalty window
	ErrorCodeQuotaExceeded        = "QUOTA_EXCEEDED"        // 429: Reservoir balance too low
	ErrorCodeSinkFailure          = "SINK_FAILURE"          // 500: Persistence backend error
	ErrorCodeInternalError        = "INTERNAL_ERROR"        // 500: Server-side error
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}
