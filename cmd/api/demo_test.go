package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procura.io/internal/award"
)

func TestSeedDemoIsAwardable(t *testing.T) {
	mem := award.NewInMemory()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, seedDemo(mem, now))

	svc := award.NewService(mem, award.WithClock(func() time.Time { return now }))
	tenant := award.Tenant{CompanyID: "co-demo", ActorID: "demo-user"}
	res, err := svc.AwardLines(context.Background(), tenant, "rfq-demo", []award.LineAward{
		{RfqLineID: "rfq-demo-l1", QuoteLineID: "ql-demo-a1"},
		{RfqLineID: "rfq-demo-l2", QuoteLineID: "ql-demo-b2"},
	}, award.AwardOptions{CreatePurchaseOrders: true})
	require.NoError(t, err)
	assert.Len(t, res.PurchaseOrders, 2)

	rfq, err := svc.GetRFQ(context.Background(), tenant, "rfq-demo")
	require.NoError(t, err)
	assert.Equal(t, award.RFQAwarded, rfq.Status)
}
