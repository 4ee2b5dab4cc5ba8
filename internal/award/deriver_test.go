package award

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePurchaseOrdersGroupsBySupplier(t *testing.T) {
	rfq := RFQ{ID: "rfq-1", CompanyID: "co", Currency: "USD", Incoterm: "FOB"}
	awards := []Award{
		{ID: "aw-1", SupplierID: "sup-b", RfqLineID: "l1", QuoteLineID: "ql1", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("2.50")},
		{ID: "aw-2", SupplierID: "sup-a", RfqLineID: "l2", QuoteLineID: "ql2", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("1.10")},
		{ID: "aw-3", SupplierID: "sup-b", RfqLineID: "l3", QuoteLineID: "ql3", Quantity: decimal.RequireFromString("0.5"), UnitPrice: decimal.NewFromInt(8)},
	}

	pos := DerivePurchaseOrders(rfq, awards, "user-1", clockAt, seqIDs())
	require.Len(t, pos, 2)

	a, b := pos[0], pos[1]
	assert.Equal(t, "sup-a", a.SupplierID)
	assert.Equal(t, "sup-b", b.SupplierID)
	for _, po := range pos {
		assert.Equal(t, PODraft, po.Status)
		assert.Equal(t, "USD", po.Currency)
		assert.Equal(t, "FOB", po.Incoterm)
		assert.Equal(t, "co", po.CompanyID)
		assert.Equal(t, "user-1", po.CreatedBy)
		assert.Equal(t, clockAt, po.CreatedAt)
		for _, l := range po.Lines {
			assert.Equal(t, po.ID, l.PurchaseOrderID)
		}
	}

	require.Len(t, a.Lines, 1)
	assert.Equal(t, "aw-2", a.Lines[0].AwardID)
	assert.True(t, decimal.RequireFromString("3.30").Equal(a.Subtotal))

	require.Len(t, b.Lines, 2)
	assert.Equal(t, []string{"aw-1", "aw-3"}, b.awardIDs())
	assert.True(t, decimal.NewFromInt(14).Equal(b.Subtotal), "subtotal %s", b.Subtotal)
}

func TestDerivePurchaseOrdersEmpty(t *testing.T) {
	pos := DerivePurchaseOrders(RFQ{}, nil, "u", clockAt, seqIDs())
	assert.Empty(t, pos)
}
