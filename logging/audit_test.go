package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newTestAuditLogger(buf *bytes.Buffer) *AuditLogger {
	return NewAuditLogger(AuditLoggerConfig{
		ServiceName: "emissions",
		Environment: "test",
		Logger:      slog.New(slog.NewJSONHandler(buf, nil)),
	})
}

// decodeAuditEvent parses the last audit entry written to buf.
func decodeAuditEvent(t *testing.T, buf *bytes.Buffer) AuditEvent {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if entry["audit"] != true {
		t.Errorf("expected audit=true attribute, got %v", entry["audit"])
	}

	raw, ok := entry["event"].(string)
	if !ok {
		t.Fatalf("missing event attribute in %v", entry)
	}
	var event AuditEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	return event
}

func TestNewAuditLogger(t *testing.T) {
	tests := []struct {
		name   string
		config AuditLoggerConfig
	}{
		{"with custom logger", AuditLoggerConfig{ServiceName: "emissions", Environment: "test", Logger: slog.Default()}},
		{"without logger", AuditLoggerConfig{ServiceName: "emissions", Environment: "production"}},
		{"minimal config", AuditLoggerConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewAuditLogger(tt.config)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.service != tt.config.ServiceName {
				t.Errorf("expected service %q, got %q", tt.config.ServiceName, logger.service)
			}
			if logger.environment != tt.config.Environment {
				t.Errorf("expected environment %q, got %q", tt.config.Environment, logger.environment)
			}
		})
	}
}

func TestAuditLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestAuditLogger(&buf)

	logger.Log(context.Background(), AuditEvent{
		Type:    AuditEventDataExport,
		Action:  "export",
		Outcome: AuditOutcomeSuccess,
	})

	event := decodeAuditEvent(t, &buf)
	if event.ID == "" {
		t.Error("expected generated event ID")
	}
	if event.Service != "emissions" || event.Environment != "test" {
		t.Errorf("unexpected service/environment: %q/%q", event.Service, event.Environment)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var logger *AuditLogger
	logger.Log(context.Background(), AuditEvent{Type: AuditEventDataExport})
	logger.LogEmission(context.Background(), "1", "Ana", AuditOutcomeSuccess, nil)
}

func TestAuditLogger_LogEmission(t *testing.T) {
	tests := []struct {
		name     string
		outcome  AuditOutcome
		wantType AuditEventType
	}{
		{"recorded", AuditOutcomeSuccess, AuditEventEmissionRecorded},
		{"rejected", AuditOutcomeFailure, AuditEventEmissionRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newTestAuditLogger(&buf)

			logger.LogEmission(context.Background(), "42", "Ana", tt.outcome, map[string]interface{}{"fuel": "ethanol"})

			event := decodeAuditEvent(t, &buf)
			if event.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, event.Type)
			}
			if event.Resource == nil || event.Resource.Type != "emission_record" || event.Resource.ID != "42" {
				t.Errorf("unexpected resource: %+v", event.Resource)
			}
			if event.Actor == nil || event.Actor.Name != "Ana" {
				t.Errorf("unexpected actor: %+v", event.Actor)
			}
			if event.Details["fuel"] != "ethanol" {
				t.Errorf("expected fuel detail, got %v", event.Details)
			}
		})
	}
}

func TestAuditLogger_LogAdminAction(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestAuditLogger(&buf)

	logger.LogAdminAction(context.Background(), "admin-1", "admin@example.com", "data_export",
		"export", "2024-01-01.csv", AuditOutcomeSuccess, map[string]interface{}{"rows": 3})

	event := decodeAuditEvent(t, &buf)
	if event.Type != AuditEventDataExport {
		t.Errorf("expected type %q, got %q", AuditEventDataExport, event.Type)
	}
	if event.Actor.Type != "admin" || event.Actor.ID != "admin-1" {
		t.Errorf("unexpected actor: %+v", event.Actor)
	}
	if event.Resource.ID != "2024-01-01.csv" {
		t.Errorf("unexpected resource: %+v", event.Resource)
	}
}

func TestAuditLogger_LogSecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestAuditLogger(&buf)

	logger.LogSecurityEvent(context.Background(), AuditEventRateLimitExceeded, "10.0.0.1", "curl/8", nil)

	event := decodeAuditEvent(t, &buf)
	if event.Outcome != AuditOutcomeDenied {
		t.Errorf("expected outcome denied, got %q", event.Outcome)
	}
	if event.Actor.IP != "10.0.0.1" || event.Actor.UserAgent != "curl/8" {
		t.Errorf("unexpected actor: %+v", event.Actor)
	}
}

func TestAuditLogger_LogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestAuditLogger(&buf)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "192.168.1.1")
	ctx := ContextWithRequestID(req.Context(), "req-123")

	logger.LogFromRequest(ctx, req, AuditEventDataExport, nil, nil, AuditOutcomeSuccess, nil)

	event := decodeAuditEvent(t, &buf)
	if event.Actor.IP != "192.168.1.1" {
		t.Errorf("expected IP from X-Forwarded-For, got %q", event.Actor.IP)
	}
	if event.Actor.UserAgent != "test-agent" {
		t.Errorf("expected user agent, got %q", event.Actor.UserAgent)
	}
	if event.Request == nil || event.Request.Method != http.MethodGet || event.Request.Path != "/api/export" {
		t.Fatalf("unexpected request: %+v", event.Request)
	}
	if event.Request.RequestID != "req-123" {
		t.Errorf("expected request ID from context, got %q", event.Request.RequestID)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"X-Forwarded-For", map[string]string{"X-Forwarded-For": "192.168.1.1"}, "10.0.0.1:1234", "192.168.1.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "192.168.1.2"}, "10.0.0.1:1234", "192.168.1.2"},
		{"forwarded wins", map[string]string{"X-Forwarded-For": "192.168.1.1", "X-Real-IP": "192.168.1.2"}, "10.0.0.1:1234", "192.168.1.1"},
		{"remote address", nil, "10.0.0.1:1234", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTraceIDFromContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}

	traceID := trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if got := TraceIDFromContext(ctx); got != traceID.String() {
		t.Errorf("TraceIDFromContext() = %q, want %q", got, traceID.String())
	}
}

func TestAuditMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantOutcome AuditOutcome
	}{
		{"success", http.StatusOK, AuditOutcomeSuccess},
		{"not found", http.StatusNotFound, AuditOutcomeFailure},
		{"unauthorized", http.StatusUnauthorized, AuditOutcomeDenied},
		{"forbidden", http.StatusForbidden, AuditOutcomeDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newTestAuditLogger(&buf)

			actor := func(r *http.Request) *AuditActor {
				return &AuditActor{Type: "admin", ID: "admin-1"}
			}
			handler := AuditMiddleware(logger, AuditEventDataExport, actor)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}),
			)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			event := decodeAuditEvent(t, &buf)
			if event.Outcome != tt.wantOutcome {
				t.Errorf("expected outcome %q, got %q", tt.wantOutcome, event.Outcome)
			}
			if event.Actor.ID != "admin-1" {
				t.Errorf("expected actor from ActorFunc, got %+v", event.Actor)
			}
			if event.Details["status_code"] != float64(tt.status) {
				t.Errorf("expected status_code detail %d, got %v", tt.status, event.Details["status_code"])
			}
		})
	}
}
