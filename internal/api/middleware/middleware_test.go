package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newTestRouter(logger *slog.Logger, h http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestID(logger))
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(Metrics)
	r.Get("/v1/things/{id}", h)
	return r
}

func TestRequestID_PropagatesAndEchoes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	router := newTestRouter(logger, func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		RequestLogger(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/things/42", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if seenID != "req-123" {
		t.Errorf("request ID in handler = %q, want req-123", seenID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("%s = %q, want req-123", RequestIDHeader, got)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		if entry["request_id"] != "req-123" {
			t.Errorf("log line missing request_id: %s", line)
		}
	}
}

func TestLogger_RecordsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := newTestRouter(logger, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/things/42", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["route"] != "/v1/things/{id}" {
		t.Errorf("route = %v, want /v1/things/{id}", entry["route"])
	}
	if entry["status"] != float64(http.StatusBadGateway) {
		t.Errorf("status = %v, want 502", entry["status"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 5xx", entry["level"])
	}
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := newTestRouter(logger, func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/things/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal_error" {
		t.Errorf("error = %q, want internal_error", body["error"])
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestRecoverer_AbortHandler(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler re-panicked", rec)
		}
	}()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestLogger_OutsideRequest(t *testing.T) {
	if RequestLogger(httptest.NewRequest(http.MethodGet, "/", nil).Context()) != slog.Default() {
		t.Error("expected slog.Default outside a request")
	}
}
