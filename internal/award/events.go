package award

import (
	"context"
	"time"
)

type EventType string

const (
	EventLineAwarded EventType = "rfq.line_awarded"
	EventLineLost    EventType = "rfq.line_lost"
)

// Notification tells a supplier which RFQ lines it won or lost in a batch.
type Notification struct {
	Type       EventType `json:"type"`
	CompanyID  string    `json:"company_id"`
	Recipients []string  `json:"recipients"`
	RFQID      string    `json:"rfq_id"`
	QuoteID    string    `json:"quote_id"`
	RfqLineIDs []string  `json:"rfq_line_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier queues notifications for delivery. The engine calls it after
// commit and does not wait for delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AuditRecord is a before/after snapshot of one mutated entity. Before is nil
// for creations and After is nil for deletions.
type AuditRecord struct {
	CompanyID  string `json:"company_id"`
	ActorID    string `json:"actor_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	Before     any    `json:"before"`
	After      any    `json:"after"`
}

type Auditor interface {
	Record(ctx context.Context, rec AuditRecord) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) error { return nil }

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, AuditRecord) error { return nil }

// outbox collects side effects inside a transaction; they are released only
// once the transaction has committed.
type outbox struct {
	tenant        Tenant
	notifications []Notification
	records       []AuditRecord
}

func (o *outbox) audit(entityType, entityID, action string, before, after any) {
	o.records = append(o.records, AuditRecord{
		CompanyID:  o.tenant.CompanyID,
		ActorID:    o.tenant.ActorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Before:     before,
		After:      after,
	})
}

func (o *outbox) notify(n Notification) {
	o.notifications = append(o.notifications, n)
}
