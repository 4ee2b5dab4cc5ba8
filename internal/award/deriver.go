package award

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DerivePurchaseOrders groups awards by supplier and builds one draft purchase
// order per supplier with one line per award. Currency and incoterm come from
// the RFQ. Output is ordered by supplier id, lines by award order.
func DerivePurchaseOrders(rfq RFQ, awards []Award, actorID string, now time.Time, newID func() string) []PurchaseOrder {
	groups := make(map[string][]Award)
	var suppliers []string
	for _, a := range awards {
		if _, ok := groups[a.SupplierID]; !ok {
			suppliers = append(suppliers, a.SupplierID)
		}
		groups[a.SupplierID] = append(groups[a.SupplierID], a)
	}
	sort.Strings(suppliers)

	pos := make([]PurchaseOrder, 0, len(suppliers))
	for _, supplierID := range suppliers {
		po := PurchaseOrder{
			ID:         newID(),
			CompanyID:  rfq.CompanyID,
			RFQID:      rfq.ID,
			SupplierID: supplierID,
			Status:     PODraft,
			Currency:   rfq.Currency,
			Incoterm:   rfq.Incoterm,
			Subtotal:   decimal.Zero,
			CreatedBy:  actorID,
			CreatedAt:  now,
		}
		for _, a := range groups[supplierID] {
			total := a.Quantity.Mul(a.UnitPrice)
			po.Lines = append(po.Lines, PurchaseOrderLine{
				ID:              newID(),
				PurchaseOrderID: po.ID,
				AwardID:         a.ID,
				RfqLineID:       a.RfqLineID,
				QuoteLineID:     a.QuoteLineID,
				Quantity:        a.Quantity,
				UnitPrice:       a.UnitPrice,
				LineTotal:       total,
			})
			po.Subtotal = po.Subtotal.Add(total)
		}
		pos = append(pos, po)
	}
	return pos
}

// awardIDs lists the award ids of a purchase order's lines.
func (po PurchaseOrder) awardIDs() []string {
	ids := make([]string, 0, len(po.Lines))
	for _, l := range po.Lines {
		ids = append(ids, l.AwardID)
	}
	return ids
}
