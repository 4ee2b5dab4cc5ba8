package award

import (
	"context"
	"time"
)

// Store opens units of work. Everything fn does through the Tx commits
// together or not at all; a non-nil error from fn rolls back.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view over the RFQ, quote, award and purchase order
// tables. Every read is scoped by company id; rows of other tenants are
// reported as ErrNotFound.
type Tx interface {
	// LockRFQ loads the RFQ and holds it for the rest of the transaction so
	// that concurrent mutations of the same RFQ are serialised.
	LockRFQ(ctx context.Context, companyID, rfqID string) (RFQ, error)
	GetRFQ(ctx context.Context, companyID, rfqID string) (RFQ, error)
	RFQLines(ctx context.Context, companyID, rfqID string) ([]RfqLine, error)
	Quotes(ctx context.Context, companyID, rfqID string) ([]Quote, error)
	QuoteLines(ctx context.Context, companyID, rfqID string) ([]QuoteLine, error)

	// Awards returns every award of the RFQ, cancelled ones included.
	Awards(ctx context.Context, companyID, rfqID string) ([]Award, error)
	AwardsByID(ctx context.Context, companyID string, ids []string) ([]Award, error)
	// InsertAward must fail with ErrAlreadyAwarded when the line already has
	// an active award.
	InsertAward(ctx context.Context, a Award) error
	DeleteAward(ctx context.Context, companyID, awardID string) error
	AttachAwards(ctx context.Context, companyID, poID string, awardIDs []string) error
	// CancelAwards marks every active award of the purchase order cancelled
	// and returns them in their new state.
	CancelAwards(ctx context.Context, companyID, poID string, at time.Time) ([]Award, error)

	UpdateRFQ(ctx context.Context, rfq RFQ) error
	UpdateQuoteStatus(ctx context.Context, companyID, quoteID string, status QuoteStatus) error

	InsertPurchaseOrder(ctx context.Context, po PurchaseOrder) error
	LockPurchaseOrder(ctx context.Context, companyID, poID string) (PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, companyID, poID string) (PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po PurchaseOrder) error
}
