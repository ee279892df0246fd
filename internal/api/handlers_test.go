package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"metricsgw/internal/admission"
	"metricsgw/internal/auth"
	"metricsgw/internal/ingest"
	"metricsgw/internal/models"
	"metricsgw/internal/sink"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// brokenSink fails every insert, simulating an unreachable backend.
type brokenSink struct{}

func (brokenSink) InsertMany(ctx context.Context, records []json.RawMessage) (int, error) {
	return 0, errors.New("connection refused")
}
func (brokenSink) Ping(ctx context.Context) error { return errors.New("connection refused") }
func (brokenSink) Close() error                   { return nil }

func newTestRouter(t *testing.T, capacity int64, s sink.Sink) *mux.Router {
	t.Helper()

	if s == nil {
		var err error
		s, err = sink.NewMemorySink(sink.Config{Type: models.SinkTypeMemory})
		require.NoError(t, err)
	}

	sched := admission.NewScheduler(models.AdmissionConfig{
		Capacity:       capacity,
		RefillAmount:   capacity,
		RefillInterval: time.Hour,
		IdleThreshold:  time.Hour,
		SweepInterval:  time.Minute,
	})
	t.Cleanup(sched.Close)

	gate := admission.NewGate(sched, 60*time.Second)
	handlers := NewHandlers(auth.NewVerifier(testSecret), gate, ingest.NewService(s), WithSink(s))

	return SetupRoutes(handlers, models.NewDefaultConfig())
}

// submit posts an NDJSON body from the given client address, signing it with
// the shared test secret unless a different signature is supplied.
func submit(router *mux.Router, clientIP, body string, signature ...string) *httptest.ResponseRecorder {
	sig := auth.NewVerifier(testSecret).Sign([]byte(body))
	if len(signature) > 0 {
		sig = signature[0]
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("X-Real-IP", clientIP)
	req.Header.Set("X-Metrics-Signature", sig)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReady(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp models.ReadyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
}

func TestIngestSuccess(t *testing.T) {
	memSink, err := sink.NewMemorySink(sink.Config{Type: models.SinkTypeMemory})
	require.NoError(t, err)
	router := newTestRouter(t, 100, memSink)

	body := `{"metric":"cpu","value":0.42}
{"metric":"mem","value":512}
{"metric":"disk","value":0.9}`

	w := submit(router, "10.0.0.1", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Inserted)
	assert.Equal(t, int64(97), resp.Remaining)
	assert.Equal(t, "97", w.Header().Get("X-RateLimit-Remaining"))

	assert.Len(t, memSink.Records(), 3)
}

func TestIngestBadSignature(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	body := `{"metric":"cpu","value":1}`
	w := submit(router, "10.0.0.2", body, "deadbeef")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodeAuthenticationFailed, resp.Code)
}

func TestIngestPenaltyBlocksValidSubmissions(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	body := `{"metric":"cpu","value":1}`

	// A forged signature places the key under a penalty window.
	w := submit(router, "10.0.0.3", body, "deadbeef")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// A correctly signed batch within the window is still rejected.
	w = submit(router, "10.0.0.3", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodePenalized, resp.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// An unrelated key is unaffected.
	w = submit(router, "10.0.0.4", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngestOverQuota(t *testing.T) {
	router := newTestRouter(t, 4, nil)

	body := `{"a":1}
{"a":2}
{"a":3}
{"a":4}
{"a":5}`

	w := submit(router, "10.0.0.5", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodeQuotaExceeded, resp.Code)

	// A rejected batch consumes nothing.
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	// A smaller batch from the same key still fits.
	w = submit(router, "10.0.0.5", `{"a":1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Remaining"))
}

func TestIngestInvalidBody(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	body := `{"metric":"cpu","value":1}
{not json}`

	w := submit(router, "10.0.0.6", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodeInvalidRequest, resp.Code)
	assert.Contains(t, resp.Message, "line 2")
}

func TestIngestSinkFailure(t *testing.T) {
	router := newTestRouter(t, 100, brokenSink{})

	w := submit(router, "10.0.0.7", `{"metric":"cpu","value":1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodeSinkFailure, resp.Code)
}

func TestIngestRemainingDecreasesAcrossBatches(t *testing.T) {
	router := newTestRouter(t, 10, nil)

	w := submit(router, "10.0.0.8", `{"a":1}
{"a":2}
{"a":3}
{"a":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "6", w.Header().Get("X-RateLimit-Remaining"))

	w = submit(router, "10.0.0.8", `{"a":1}
{"a":2}
{"a":3}
{"a":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Remaining"))

	w = submit(router, "10.0.0.8", `{"a":1}
{"a":2}
{"a":3}
{"a":4}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusHealthy, resp.Status)
	assert.Equal(t, models.StatusHealthy, resp.Components["sink"].Status)
}

func TestHealthCheckUnhealthySink(t *testing.T) {
	router := newTestRouter(t, 100, brokenSink{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.HealthCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusUnhealthy, resp.Status)
	assert.Equal(t, models.StatusUnhealthy, resp.Components["sink"].Status)
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, 100, nil)

	req := httptest.NewRequest("DELETE", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.ErrorCodeInvalidRequest, resp.Code)
}

func TestCustomSignatureHeader(t *testing.T) {
	memSink, err := sink.NewMemorySink(sink.Config{Type: models.SinkTypeMemory})
	require.NoError(t, err)

	sched := admission.NewScheduler(models.AdmissionConfig{
		Capacity:       100,
		RefillAmount:   100,
		RefillInterval: time.Hour,
		IdleThreshold:  time.Hour,
		SweepInterval:  time.Minute,
	})
	t.Cleanup(sched.Close)

	gate := admission.NewGate(sched, 60*time.Second)
	handlers := NewHandlers(auth.NewVerifier(testSecret), gate, ingest.NewService(memSink),
		WithSink(memSink), WithSignatureHeader("X-Custom-Sig"))
	router := SetupRoutes(handlers, models.NewDefaultConfig())

	body := `{"metric":"cpu","value":1}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("X-Custom-Sig", auth.NewVerifier(testSecret).Sign([]byte(body)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
