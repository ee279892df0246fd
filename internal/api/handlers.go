package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"metricsgw/internal/admission"
	"metricsgw/internal/auth"
	"metricsgw/internal/ingest"
	"metricsgw/internal/models"
	"metricsgw/internal/sink"
	"metricsgw/internal/version"
)

// DecisionRecorder receives one observation per admission decision for
// metrics instrumentation. Implementations must be safe for concurrent use.
type DecisionRecorder interface {
	RecordDecision(status string, weight int64)
}

// Handlers contains HTTP handlers for the metrics gateway
type Handlers struct {
	verifier      *auth.Verifier
	gate          *admission.Gate
	ingestService ingest.ServiceInterface

	sink            sink.Sink
	signatureHeader string
	recorder        DecisionRecorder
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handlers)

// WithSink provides the sink for health-check pings.
func WithSink(s sink.Sink) HandlerOption {
	return func(h *Handlers) { h.sink = s }
}

// WithSignatureHeader overrides the request header carrying the HMAC digest.
func WithSignatureHeader(name string) HandlerOption {
	return func(h *Handlers) { h.signatureHeader = name }
}

// WithDecisionRecorder wires admission decision metrics.
func WithDecisionRecorder(r DecisionRecorder) HandlerOption {
	return func(h *Handlers) { h.recorder = r }
}

// NewHandlers creates a new handlers instance
func NewHandlers(verifier *auth.Verifier, gate *admission.Gate, ingestService ingest.ServiceInterface, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		verifier:        verifier,
		gate:            gate,
		ingestService:   ingestService,
		signatureHeader: "X-Metrics-Signature",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Ready handles the root liveness greeting
// GET /
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, models.ReadyResponse{Status: "ready"})
}

// Ingest handles batch submissions
// POST /
//
// The raw body is newline-delimited JSON; its HMAC-SHA1 digest arrives in the
// signature header. The admission gate checks signature, then penalty, then
// quota, in that order. Admitted batches run in the client key's serialized
// execution slot. Every response carries the remaining reservoir balance.
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "failed to read request body")
		return
	}

	key := ClientKey(r)
	now := time.Now()

	if !h.verifier.Verify(body, r.Header.Get(h.signatureHeader)) {
		decision := h.gate.Admit(key, false, 0, now)
		h.recordDecision(decision.Status, 0)
		slog.Warn("Invalid batch signature", "key", key)
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeAuthenticationFailed, "invalid signature")
		return
	}

	batch, err := models.ParseBatch(body)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	decision := h.gate.Admit(key, true, batch.Weight(), now)
	h.recordDecision(decision.Status, batch.Weight())
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

	switch decision.Status {
	case admission.Penalized:
		retryAfter := int(time.Until(decision.RetryNotBefore).Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		slog.Warn("Penalized submission rejected", "key", key, "retry_after", retryAfter)
		h.writeErrorResponse(w, http.StatusTooManyRequests, models.ErrorCodePenalized,
			fmt.Sprintf("key is penalized, retry after %ds", retryAfter))
		return

	case admission.OverQuota:
		slog.Warn("Over-quota submission rejected",
			"key", key,
			"weight", batch.Weight(),
			"remaining", decision.Remaining,
		)
		h.writeErrorResponse(w, http.StatusTooManyRequests, models.ErrorCodeQuotaExceeded,
			fmt.Sprintf("batch weight %d exceeds remaining quota %d", batch.Weight(), decision.Remaining))
		return
	}

	var inserted int
	runErr := decision.Run(r.Context(), func(ctx context.Context) error {
		n, err := h.ingestService.Ingest(ctx, batch)
		inserted = n
		return err
	})
	if runErr != nil {
		var serviceErr *ingest.ServiceError
		if errors.As(runErr, &serviceErr) {
			slog.Error("Batch ingestion failed", "key", key, "error", runErr)
			h.writeErrorResponse(w, serviceErr.StatusCode, serviceErr.Code, serviceErr.Message)
			return
		}
		slog.Error("Batch scheduling failed", "key", key, "error", runErr)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to run batch")
		return
	}

	slog.Info("Batch ingested", "key", key, "records", inserted, "remaining", decision.Remaining)
	h.writeJSONResponse(w, http.StatusOK, models.IngestResponse{
		Status:    "ok",
		Inserted:  inserted,
		Remaining: decision.Remaining,
	})
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	status := http.StatusOK
	if h.sink != nil {
		if err := h.sink.Ping(r.Context()); err != nil {
			response.Status = models.StatusUnhealthy
			response.AddComponent("sink", models.StatusUnhealthy, err.Error())
			status = http.StatusServiceUnavailable
		} else {
			response.AddComponent("sink", models.StatusHealthy, "Sink is operational")
		}
	}

	h.writeJSONResponse(w, status, response)
}

func (h *Handlers) recordDecision(status admission.Status, weight int64) {
	if h.recorder != nil {
		h.recorder.RecordDecision(status.String(), weight)
	}
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing more to send.
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}
