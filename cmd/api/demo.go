package main

import (
	"time"

	"github.com/shopspring/decimal"

	"procura.io/internal/award"
)

// seedDemo provisions the same demo RFQ as the SQL seeds so the in-memory
// mode has something to award.
func seedDemo(m *award.InMemory, now time.Time) error {
	due := now.Add(14 * 24 * time.Hour)
	rfq := award.RFQ{
		ID: "rfq-demo", CompanyID: "co-demo", Title: "Demo fasteners",
		Status: award.RFQOpen, Currency: "EUR", Incoterm: "DAP",
		DueAt: &due, CreatedAt: now, UpdatedAt: now,
	}
	lines := []award.RfqLine{
		{ID: "rfq-demo-l1", Sequence: 1, Description: "M8 hex bolt", Quantity: decimal.NewFromInt(1000), TargetPrice: decimal.RequireFromString("0.12"), Currency: "EUR"},
		{ID: "rfq-demo-l2", Sequence: 2, Description: "M8 nut", Quantity: decimal.NewFromInt(1000), TargetPrice: decimal.RequireFromString("0.05"), Currency: "EUR"},
	}
	if err := m.PutRFQ(rfq, lines); err != nil {
		return err
	}

	quotes := []struct {
		quote  award.Quote
		prices [2]string
		lead   int
	}{
		{award.Quote{ID: "quote-demo-a", SupplierID: "sup-demo-a"}, [2]string{"0.11", "0.06"}, 10},
		{award.Quote{ID: "quote-demo-b", SupplierID: "sup-demo-b"}, [2]string{"0.13", "0.04"}, 5},
	}
	for i, q := range quotes {
		q.quote.RFQID = rfq.ID
		q.quote.Status = award.QuoteSubmitted
		q.quote.SubmittedAt = &now
		suffix := string(rune('a' + i))
		qls := []award.QuoteLine{
			{ID: "ql-demo-" + suffix + "1", RfqLineID: lines[0].ID, UnitPrice: decimal.RequireFromString(q.prices[0]), LeadTimeDays: q.lead},
			{ID: "ql-demo-" + suffix + "2", RfqLineID: lines[1].ID, UnitPrice: decimal.RequireFromString(q.prices[1]), LeadTimeDays: q.lead},
		}
		if err := m.PutQuote(q.quote, qls); err != nil {
			return err
		}
	}
	return nil
}
