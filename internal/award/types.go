package award

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant identifies the acting company and user. It is passed explicitly to
// every operation; the engine never resolves it on its own.
type Tenant struct {
	CompanyID string `json:"company_id"`
	ActorID   string `json:"actor_id"`
}

type RFQStatus string

const (
	RFQDraft     RFQStatus = "draft"
	RFQOpen      RFQStatus = "open"
	RFQClosed    RFQStatus = "closed"
	RFQCancelled RFQStatus = "cancelled"
	RFQAwarded   RFQStatus = "awarded"
)

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSubmitted QuoteStatus = "submitted"
	QuoteWithdrawn QuoteStatus = "withdrawn"
	QuoteAwarded   QuoteStatus = "awarded"
	QuoteRejected  QuoteStatus = "rejected"
)

// awardable reports whether a quote in this status may win lines.
func (s QuoteStatus) awardable() bool {
	return s == QuoteSubmitted || s == QuoteAwarded
}

// projected reports whether the projector owns this quote's status. Draft
// and withdrawn quotes are left alone.
func (s QuoteStatus) projected() bool {
	return s.awardable() || s == QuoteRejected
}

type AwardStatus string

const (
	AwardActive    AwardStatus = "active"
	AwardCancelled AwardStatus = "cancelled"
)

type POStatus string

const (
	PODraft     POStatus = "draft"
	POSent      POStatus = "sent"
	POConfirmed POStatus = "confirmed"
	POCancelled POStatus = "cancelled"
)

// RFQ is the aggregate root. Status and IsPartiallyAwarded are derived by the
// projector once the RFQ is open.
type RFQ struct {
	ID                 string     `json:"id"`
	CompanyID          string     `json:"company_id"`
	Title              string     `json:"title"`
	Status             RFQStatus  `json:"status"`
	IsPartiallyAwarded bool       `json:"is_partially_awarded"`
	Currency           string     `json:"currency"`
	Incoterm           string     `json:"incoterm,omitempty"`
	DueAt              *time.Time `json:"due_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type RfqLine struct {
	ID          string          `json:"id"`
	RFQID       string          `json:"rfq_id"`
	Sequence    int             `json:"sequence"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Currency    string          `json:"currency"`
}

type Quote struct {
	ID          string      `json:"id"`
	RFQID       string      `json:"rfq_id"`
	SupplierID  string      `json:"supplier_id"`
	Status      QuoteStatus `json:"status"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
}

type QuoteLine struct {
	ID           string          `json:"id"`
	QuoteID      string          `json:"quote_id"`
	RfqLineID    string          `json:"rfq_line_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LeadTimeDays int             `json:"lead_time_days"`
}

// Award records that a quote line won an RFQ line.
// Cancelled rows are kept for history and never block a new award.
type Award struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	RFQID           string          `json:"rfq_id"`
	RfqLineID       string          `json:"rfq_line_id"`
	SupplierID      string          `json:"supplier_id"`
	QuoteID         string          `json:"quote_id"`
	QuoteLineID     string          `json:"quote_line_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	AwardedBy       string          `json:"awarded_by"`
	AwardedAt       time.Time       `json:"awarded_at"`
	Status          AwardStatus     `json:"status"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	PurchaseOrderID *string         `json:"po_id"`
}

func (a Award) IsActive() bool { return a.Status == AwardActive }

func (a Award) Converted() bool { return a.PurchaseOrderID != nil }

type PurchaseOrder struct {
	ID          string              `json:"id"`
	CompanyID   string              `json:"company_id"`
	RFQID       string              `json:"rfq_id"`
	SupplierID  string              `json:"supplier_id"`
	Status      POStatus            `json:"status"`
	Currency    string              `json:"currency"`
	Incoterm    string              `json:"incoterm,omitempty"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
	Lines       []PurchaseOrderLine `json:"lines"`
}

type PurchaseOrderLine struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	AwardID         string          `json:"award_id"`
	RfqLineID       string          `json:"rfq_line_id"`
	QuoteLineID     string          `json:"quote_line_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// LineAward is one (line, winning quote line) pair of an award batch.
// A nil Quantity awards the full line quantity.
type LineAward struct {
	RfqLineID   string           `json:"rfq_line_id"`
	QuoteLineID string           `json:"quote_line_id"`
	Quantity    *decimal.Decimal `json:"awarded_qty,omitempty"`
}

// AwardOptions tunes AwardLines. CreatePurchaseOrders turns on inline mode.
type AwardOptions struct {
	CreatePurchaseOrders bool
}

type AwardResult struct {
	Awards         []Award         `json:"awards"`
	PurchaseOrders []PurchaseOrder `json:"purchase_orders"`
}
