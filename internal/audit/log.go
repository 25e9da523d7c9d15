// Package audit records security-relevant events. The sink is best-effort:
// a write failure is logged and swallowed, never surfaced to the operation
// that triggered it.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"medvault.org/internal/auth"
	"medvault.org/internal/obs"
)

// Event names for the compliance-relevant actions.
const (
	EventUserLogin          = "USER_LOGIN"
	EventUserRegistered     = "USER_REGISTERED"
	EventPatientAccess      = "PATIENT_ACCESS"
	EventReportCreated      = "REPORT_CREATED"
	EventEmergencyRequested = "EMERGENCY_ACCESS_REQUEST"
	EventEmergencyApproved  = "EMERGENCY_ACCESS_APPROVED"
	EventEmergencyDenied    = "EMERGENCY_ACCESS_DENIED"
	EventDocumentAnalyzed   = "DOCUMENT_ANALYZED"
)

// Recorder is the append-only audit sink consumed by the domain services.
type Recorder interface {
	Record(ctx context.Context, event string, fields map[string]any) error
}

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogSink writes audit entries as structured log lines through the shared
// logger. In-process writes cannot block on I/O beyond stdout.
type LogSink struct{}

var _ Recorder = LogSink{}

// NewLogSink returns the log-backed audit sink.
func NewLogSink() LogSink { return LogSink{} }

// Record emits one audit entry enriched with request and caller context.
func (LogSink) Record(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}

	logger := obs.Logger()
	entry := logger.Info().
		Str("type", "audit").
		Str("event", event).
		Time("ts", time.Now().UTC())
	if rid := requestIDFromContext(ctx); rid != "" {
		entry = entry.Str("request_id", rid)
	}
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		entry = entry.Str("user_id", identity.UserID)
	}
	if len(fields) > 0 {
		entry = entry.Fields(fields)
	}
	entry.Msg("audit")
	return nil
}
