package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// Authentication events
	AuditEventTokenRejected AuditEventType = "auth.token_rejected"
	AuditEventAccessDenied  AuditEventType = "auth.access_denied"

	// Emission events
	AuditEventEmissionRecorded AuditEventType = "emission.recorded"
	AuditEventEmissionRejected AuditEventType = "emission.rejected"

	// Admin events
	AuditEventDataExport AuditEventType = "admin.data_export"
	AuditEventMigration  AuditEventType = "admin.migration"

	// Security events
	AuditEventRateLimitExceeded AuditEventType = "security.rate_limit"
)

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Type        AuditEventType         `json:"type"`
	Actor       *AuditActor            `json:"actor"`
	Resource    *AuditResource         `json:"resource,omitempty"`
	Action      string                 `json:"action"`
	Outcome     AuditOutcome           `json:"outcome"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Request     *AuditRequest          `json:"request,omitempty"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
}

// AuditActor represents who performed the action.
type AuditActor struct {
	// Type of actor (anonymous, admin, system)
	Type      string `json:"type"`
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditResource represents the resource affected by the action.
type AuditResource struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
}

// AuditRequest represents the HTTP request context.
type AuditRequest struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// AuditOutcome represents the outcome of an action.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
	AuditOutcomeDenied  AuditOutcome = "denied"
)

// AuditLogger provides structured audit logging.
type AuditLogger struct {
	logger      *slog.Logger
	service     string
	environment string
}

// AuditLoggerConfig holds configuration for the audit logger.
type AuditLoggerConfig struct {
	ServiceName string
	Environment string
	Logger      *slog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config AuditLoggerConfig) *AuditLogger {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditLogger{
		logger:      logger.With("audit", true),
		service:     config.ServiceName,
		environment: config.Environment,
	}
}

// Log logs an audit event. A nil logger is a no-op.
func (l *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if l == nil {
		return
	}

	event.Service = l.service
	event.Environment = l.environment
	event.Timestamp = time.Now().UTC()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.Request != nil {
		if event.Request.TraceID == "" {
			event.Request.TraceID = TraceIDFromContext(ctx)
		}
		if event.Request.RequestID == "" {
			event.Request.RequestID = RequestIDFromContext(ctx)
		}
	}

	eventJSON, _ := json.Marshal(event)

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit_event",
		slog.String("event_type", string(event.Type)),
		slog.String("action", event.Action),
		slog.String("outcome", string(event.Outcome)),
		slog.String("event", string(eventJSON)),
	)
}

// LogEmission logs the outcome of an emission submission. recordID is empty
// for rejected submissions.
func (l *AuditLogger) LogEmission(ctx context.Context, recordID, personName string, outcome AuditOutcome, details map[string]interface{}) {
	eventType := AuditEventEmissionRecorded
	if outcome != AuditOutcomeSuccess {
		eventType = AuditEventEmissionRejected
	}

	l.Log(ctx, AuditEvent{
		Type: eventType,
		Actor: &AuditActor{
			Type: "anonymous",
			Name: personName,
		},
		Resource: &AuditResource{
			Type: "emission_record",
			ID:   recordID,
		},
		Action:  string(eventType),
		Outcome: outcome,
		Details: details,
	})
}

// LogAdminAction logs an admin action.
func (l *AuditLogger) LogAdminAction(ctx context.Context, adminID, adminEmail, action, targetType, targetID string, outcome AuditOutcome, details map[string]interface{}) {
	l.Log(ctx, AuditEvent{
		Type: AuditEventType("admin." + action),
		Actor: &AuditActor{
			Type: "admin",
			ID:   adminID,
			Name: adminEmail,
		},
		Resource: &AuditResource{
			Type: targetType,
			ID:   targetID,
		},
		Action:  action,
		Outcome: outcome,
		Details: details,
	})
}

// LogSecurityEvent logs a security-related event.
func (l *AuditLogger) LogSecurityEvent(ctx context.Context, eventType AuditEventType, ip, userAgent string, details map[string]interface{}) {
	l.Log(ctx, AuditEvent{
		Type: eventType,
		Actor: &AuditActor{
			Type:      "anonymous",
			IP:        ip,
			UserAgent: userAgent,
		},
		Action:  string(eventType),
		Outcome: AuditOutcomeDenied,
		Details: details,
	})
}

// LogFromRequest logs an event with HTTP request context.
func (l *AuditLogger) LogFromRequest(ctx context.Context, r *http.Request, eventType AuditEventType, actor *AuditActor, resource *AuditResource, outcome AuditOutcome, details map[string]interface{}) {
	if actor == nil {
		actor = &AuditActor{Type: "anonymous"}
	}
	if actor.IP == "" {
		actor.IP = ClientIP(r)
	}
	if actor.UserAgent == "" {
		actor.UserAgent = r.UserAgent()
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}

	l.Log(ctx, AuditEvent{
		Type:     eventType,
		Actor:    actor,
		Resource: resource,
		Action:   string(eventType),
		Outcome:  outcome,
		Details:  details,
		Request: &AuditRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: requestID,
		},
	})
}

// ClientIP returns the originating client address, honoring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// TraceIDFromContext returns the trace ID of the active span, or "".
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// ActorFunc extracts the acting principal from an authenticated request.
type ActorFunc func(r *http.Request) *AuditActor

// AuditMiddleware creates an HTTP middleware that logs an audit event for
// every request it wraps. actor may be nil.
func AuditMiddleware(logger *AuditLogger, eventType AuditEventType, actor ActorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &auditResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			outcome := AuditOutcomeSuccess
			if wrapped.status >= 400 {
				outcome = AuditOutcomeFailure
			}
			if wrapped.status == http.StatusForbidden || wrapped.status == http.StatusUnauthorized {
				outcome = AuditOutcomeDenied
			}

			var a *AuditActor
			if actor != nil {
				a = actor(r)
			}

			logger.LogFromRequest(r.Context(), r, eventType, a, nil, outcome,
				map[string]interface{}{
					"status_code": wrapped.status,
				},
			)
		})
	}
}

type auditResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
