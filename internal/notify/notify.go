// Package notify delivers award outcome notifications to suppliers through
// the configured transports.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"procura.io/internal/award"
	"procura.io/internal/obs"
)

// Multi fans a notification out to every sink. All sinks are attempted; the
// joined error reports the ones that failed.
type Multi []award.Notifier

func (m Multi) Notify(ctx context.Context, n award.Notification) error {
	var errs []error
	for i, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to the service log. Used when no queue is
// configured.
type Log struct{}

func (Log) Notify(ctx context.Context, n award.Notification) error {
	obs.FromContext(ctx).Info("notification queued",
		zap.String("type", string(n.Type)),
		zap.String("company_id", n.CompanyID),
		zap.String("rfq_id", n.RFQID),
		zap.String("quote_id", n.QuoteID),
		zap.Strings("recipients", n.Recipients),
		zap.Strings("rfq_line_ids", n.RfqLineIDs),
	)
	return nil
}
