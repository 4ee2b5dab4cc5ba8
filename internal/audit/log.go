package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"procura.io/internal/auth"
	"procura.io/internal/award"
	"procura.io/internal/obs"
)

// Log writes audit records as structured log lines. It satisfies
// award.Auditor.
type Log struct {
	logger func(ctx context.Context) *zap.Logger
	now    func() time.Time
}

var _ award.Auditor = (*Log)(nil)

func NewLog() *Log {
	return &Log{
		logger: obs.FromContext,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record emits one audit line with before/after snapshots encoded as JSON.
func (l *Log) Record(ctx context.Context, rec award.AuditRecord) error {
	if strings.TrimSpace(rec.Action) == "" {
		return errors.New("audit action is required")
	}
	before, err := snapshot(rec.Before)
	if err != nil {
		return err
	}
	after, err := snapshot(rec.After)
	if err != nil {
		return err
	}
	l.logger(ctx).Info("audit",
		zap.String("type", "audit"),
		zap.String("event", rec.Action),
		zap.String("ts", l.now().Format(time.RFC3339Nano)),
		zap.String("company_id", rec.CompanyID),
		zap.String("actor_id", rec.ActorID),
		zap.String("entity_type", rec.EntityType),
		zap.String("entity_id", rec.EntityID),
		zap.Any("before", before),
		zap.Any("after", after),
	)
	return nil
}

// LogEvent writes an audit entry for actions outside the award engine, such
// as token issuance.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	zf := []zap.Field{
		zap.String("type", "audit"),
		zap.String("event", event),
	}
	if t, ok := auth.TenantFromContext(ctx); ok {
		zf = append(zf, zap.String("company_id", t.CompanyID), zap.String("actor_id", t.ActorID))
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	zf = append(zf, zap.Any("fields", copyFields))
	obs.FromContext(ctx).Info("audit", zf...)
	return nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
