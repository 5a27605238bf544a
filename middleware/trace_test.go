package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTraceID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/status/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a generated trace ID in the request context")
	}
	if got := rec.Header().Get("X-Trace-ID"); got != seen {
		t.Errorf("response header %q does not match context trace ID %q", got, seen)
	}
}

func TestTraceID_HonorsClientHeader(t *testing.T) {
	var seen string
	handler := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/status/x", nil)
	req.Header.Set("X-Trace-ID", "client-trace")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "client-trace" {
		t.Errorf("expected client-supplied trace ID, got %q", seen)
	}
}

func TestLogger_ScopesToTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	handler := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Logger(r.Context(), base).Info("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/status/x", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "trace-123" {
		t.Errorf("expected trace_id field trace-123, got %v", fields["trace_id"])
	}
}

func TestLogger_WithoutTraceReturnsBase(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	Logger(httptest.NewRequest(http.MethodGet, "/", nil).Context(), base).Info("handled")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["trace_id"]; ok {
		t.Error("no trace_id field expected outside a traced request")
	}
}
