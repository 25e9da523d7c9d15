package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"medvault.org/internal/auth"
	"medvault.org/internal/obs"
)

func TestRecordEnrichesEntry(t *testing.T) {
	var buf bytes.Buffer
	restore := obs.SetLoggerForTests(zerolog.New(&buf))
	defer restore()

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{UserID: "user-42", Email: "a@x.com", Role: auth.RoleAdmin})

	sink := NewLogSink()
	if err := sink.Record(ctx, EventEmergencyRequested, map[string]any{"patient_id": "p-1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != EventEmergencyRequested {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	if entry["patient_id"] != "p-1" {
		t.Fatalf("fields missing: %v", entry)
	}
}

func TestRecordRejectsEmptyEvent(t *testing.T) {
	sink := NewLogSink()
	if err := sink.Record(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
