package award

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	buyer    = Tenant{CompanyID: "co-buyer", ActorID: "user-1"}
	outsider = Tenant{CompanyID: "co-other", ActorID: "user-9"}
	clockAt  = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, n Notification) error {
	return m.Called(ctx, n).Error(0)
}

type recordingAuditor struct {
	mu   sync.Mutex
	recs []AuditRecord
}

func (r *recordingAuditor) Record(_ context.Context, rec AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.recs))
	for _, rec := range r.recs {
		out = append(out, rec.Action)
	}
	return out
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

// fixture is an open RFQ with n lines and two suppliers quoting every line.
// Quote lines are named ql-<supplier>-<line>.
type fixture struct {
	store  *InMemory
	svc    *Service
	audit  *recordingAuditor
	rfq    RFQ
	lines  []RfqLine
	quoteA Quote
	quoteB Quote
}

func newFixture(t *testing.T, n int, opts ...Option) *fixture {
	t.Helper()
	store := NewInMemory()
	due := clockAt.Add(48 * time.Hour)
	f := &fixture{
		store: store,
		audit: &recordingAuditor{},
		rfq: RFQ{
			ID:        "rfq-1",
			CompanyID: buyer.CompanyID,
			Title:     "Fasteners",
			Status:    RFQOpen,
			Currency:  "EUR",
			Incoterm:  "DAP",
			DueAt:     &due,
			CreatedAt: clockAt.Add(-time.Hour),
		},
	}
	for i := 1; i <= n; i++ {
		f.lines = append(f.lines, RfqLine{
			ID:       fmt.Sprintf("line-%d", i),
			Sequence: i,
			Quantity: decimal.NewFromInt(int64(10 * i)),
			Currency: "EUR",
		})
	}
	require.NoError(t, store.PutRFQ(f.rfq, f.lines))

	f.quoteA = Quote{ID: "quote-a", RFQID: f.rfq.ID, SupplierID: "sup-a", Status: QuoteSubmitted}
	f.quoteB = Quote{ID: "quote-b", RFQID: f.rfq.ID, SupplierID: "sup-b", Status: QuoteSubmitted}
	for _, q := range []Quote{f.quoteA, f.quoteB} {
		var qls []QuoteLine
		for i, l := range f.lines {
			price := decimal.NewFromFloat(1.25).Add(decimal.NewFromInt(int64(i)))
			if q.ID == f.quoteB.ID {
				price = price.Add(decimal.RequireFromString("0.10"))
			}
			qls = append(qls, QuoteLine{
				ID:           qlID(q.SupplierID, i+1),
				RfqLineID:    l.ID,
				UnitPrice:    price,
				LeadTimeDays: 14,
			})
		}
		require.NoError(t, store.PutQuote(q, qls))
	}

	base := []Option{
		WithClock(func() time.Time { return clockAt }),
		WithIDGenerator(seqIDs()),
		WithAuditor(f.audit),
	}
	f.svc = NewService(store, append(base, opts...)...)
	return f
}

func qlID(supplier string, line int) string {
	return fmt.Sprintf("ql-%s-%d", supplier, line)
}

func pair(line int, supplier string) LineAward {
	return LineAward{RfqLineID: fmt.Sprintf("line-%d", line), QuoteLineID: qlID(supplier, line)}
}

func (f *fixture) rfqNow(t *testing.T) RFQ {
	t.Helper()
	rfq, err := f.svc.GetRFQ(context.Background(), buyer, f.rfq.ID)
	require.NoError(t, err)
	return rfq
}

func (f *fixture) quoteStatus(t *testing.T, quoteID string) QuoteStatus {
	t.Helper()
	var status QuoteStatus
	err := f.store.InTx(context.Background(), func(tx Tx) error {
		quotes, err := tx.Quotes(context.Background(), buyer.CompanyID, f.rfq.ID)
		if err != nil {
			return err
		}
		for _, q := range quotes {
			if q.ID == quoteID {
				status = q.Status
			}
		}
		return nil
	})
	require.NoError(t, err)
	return status
}

func (f *fixture) awards(t *testing.T) []Award {
	t.Helper()
	awards, err := f.svc.ListAwards(context.Background(), buyer, f.rfq.ID)
	require.NoError(t, err)
	return awards
}

func activeOnLine(awards []Award, lineID string) int {
	n := 0
	for _, a := range awards {
		if a.IsActive() && a.RfqLineID == lineID {
			n++
		}
	}
	return n
}
