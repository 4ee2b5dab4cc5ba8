package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"procura.io/internal/auth"
	"procura.io/internal/award"
	"procura.io/internal/obs"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := obs.SetLogger(zap.New(core))
	t.Cleanup(func() { obs.SetLogger(prev) })
	return logs
}

func TestRecord(t *testing.T) {
	logs := observe(t)
	l := NewLog()
	l.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	ctx := obs.WithRequestID(context.Background(), "req-123")
	rec := award.AuditRecord{
		CompanyID:  "co-1",
		ActorID:    "user-42",
		EntityType: "rfq",
		EntityID:   "rfq-1",
		Action:     "rfq.status_changed",
		Before:     award.RFQ{ID: "rfq-1", Status: award.RFQOpen},
		After:      award.RFQ{ID: "rfq-1", Status: award.RFQAwarded},
	}
	if err := l.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event"] != "rfq.status_changed" {
		t.Fatalf("unexpected event: %v", fields["event"])
	}
	if fields["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", fields["request_id"])
	}
	if fields["actor_id"] != "user-42" {
		t.Fatalf("unexpected actor id: %v", fields["actor_id"])
	}
	after, ok := fields["after"].(json.RawMessage)
	if !ok {
		t.Fatalf("after snapshot missing: %T", fields["after"])
	}
	var snap map[string]any
	if err := json.Unmarshal(after, &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if snap["status"] != "awarded" {
		t.Fatalf("unexpected snapshot status: %v", snap["status"])
	}
}

func TestRecordRequiresAction(t *testing.T) {
	observe(t)
	if err := NewLog().Record(context.Background(), award.AuditRecord{EntityType: "award"}); err == nil {
		t.Fatal("expected error for empty action")
	}
}

func TestLogEvent(t *testing.T) {
	logs := observe(t)
	ctx := auth.ContextWithTenant(context.Background(), award.Tenant{CompanyID: "co-1", ActorID: "user-42"}, nil)

	if err := LogEvent(ctx, "auth.token_issued", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["company_id"] != "co-1" {
		t.Fatalf("unexpected company id: %v", fields["company_id"])
	}
	extra, ok := fields["fields"].(map[string]any)
	if !ok || extra["foo"] != "bar" {
		t.Fatalf("fields missing or incorrect: %v", fields["fields"])
	}
	if err := LogEvent(ctx, " ", nil); err == nil {
		t.Fatal("expected error for empty event")
	}
}
