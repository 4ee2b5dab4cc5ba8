package award

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Each
// transaction works on a private copy of the state which replaces the shared
// state only when fn succeeds, so a failed unit of work leaves no trace.
// Transactions are serialised, which also serialises competing award batches.
type InMemory struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	rfqs       map[string]RFQ
	lines      map[string][]RfqLine // rfq id -> lines
	quotes     map[string]Quote
	quoteLines map[string]QuoteLine
	awards     []Award
	pos        map[string]PurchaseOrder
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{state: &memState{
		rfqs:       make(map[string]RFQ),
		lines:      make(map[string][]RfqLine),
		quotes:     make(map[string]Quote),
		quoteLines: make(map[string]QuoteLine),
		pos:        make(map[string]PurchaseOrder),
	}}
}

func (m *InMemory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// PutRFQ stores an RFQ with its lines. RFQ authoring lives outside the award
// engine; this is how callers and tests provision one.
func (m *InMemory) PutRFQ(rfq RFQ, lines []RfqLine) error {
	if rfq.ID == "" || rfq.CompanyID == "" {
		return errors.New("rfq id and company id are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.rfqs[rfq.ID] = rfq
	cp := make([]RfqLine, len(lines))
	for i, l := range lines {
		l.RFQID = rfq.ID
		cp[i] = l
	}
	m.state.lines[rfq.ID] = cp
	return nil
}

// PutQuote stores a supplier quote with its lines.
func (m *InMemory) PutQuote(q Quote, lines []QuoteLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.rfqs[q.RFQID]; !ok {
		return fmt.Errorf("rfq %s: %w", q.RFQID, ErrNotFound)
	}
	m.state.quotes[q.ID] = q
	for _, l := range lines {
		l.QuoteID = q.ID
		m.state.quoteLines[l.ID] = l
	}
	return nil
}

func (s *memState) clone() *memState {
	c := &memState{
		rfqs:       make(map[string]RFQ, len(s.rfqs)),
		lines:      make(map[string][]RfqLine, len(s.lines)),
		quotes:     make(map[string]Quote, len(s.quotes)),
		quoteLines: make(map[string]QuoteLine, len(s.quoteLines)),
		awards:     append([]Award(nil), s.awards...),
		pos:        make(map[string]PurchaseOrder, len(s.pos)),
	}
	for k, v := range s.rfqs {
		c.rfqs[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	for k, v := range s.quoteLines {
		c.quoteLines[k] = v
	}
	for k, v := range s.pos {
		v.Lines = append([]PurchaseOrderLine(nil), v.Lines...)
		c.pos[k] = v
	}
	return c
}

type memTx struct {
	st *memState
}

func (t *memTx) GetRFQ(_ context.Context, companyID, rfqID string) (RFQ, error) {
	rfq, ok := t.st.rfqs[rfqID]
	if !ok || rfq.CompanyID != companyID {
		return RFQ{}, ErrNotFound
	}
	return rfq, nil
}

func (t *memTx) LockRFQ(ctx context.Context, companyID, rfqID string) (RFQ, error) {
	return t.GetRFQ(ctx, companyID, rfqID)
}

func (t *memTx) RFQLines(ctx context.Context, companyID, rfqID string) ([]RfqLine, error) {
	if _, err := t.GetRFQ(ctx, companyID, rfqID); err != nil {
		return nil, err
	}
	lines := append([]RfqLine(nil), t.st.lines[rfqID]...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Sequence < lines[j].Sequence })
	return lines, nil
}

func (t *memTx) Quotes(ctx context.Context, companyID, rfqID string) ([]Quote, error) {
	if _, err := t.GetRFQ(ctx, companyID, rfqID); err != nil {
		return nil, err
	}
	var out []Quote
	for _, q := range t.st.quotes {
		if q.RFQID == rfqID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) QuoteLines(ctx context.Context, companyID, rfqID string) ([]QuoteLine, error) {
	if _, err := t.GetRFQ(ctx, companyID, rfqID); err != nil {
		return nil, err
	}
	var out []QuoteLine
	for _, ql := range t.st.quoteLines {
		if q, ok := t.st.quotes[ql.QuoteID]; ok && q.RFQID == rfqID {
			out = append(out, ql)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) Awards(_ context.Context, companyID, rfqID string) ([]Award, error) {
	var out []Award
	for _, a := range t.st.awards {
		if a.CompanyID == companyID && a.RFQID == rfqID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memTx) AwardsByID(_ context.Context, companyID string, ids []string) ([]Award, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Award
	for _, a := range t.st.awards {
		if _, ok := want[a.ID]; ok && a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memTx) InsertAward(_ context.Context, a Award) error {
	for _, existing := range t.st.awards {
		if existing.ID == a.ID {
			return fmt.Errorf("award %s already exists", a.ID)
		}
		// Mirrors the partial unique index on active awards per line.
		if a.IsActive() && existing.IsActive() && existing.RfqLineID == a.RfqLineID {
			return ErrAlreadyAwarded
		}
	}
	t.st.awards = append(t.st.awards, a)
	return nil
}

func (t *memTx) DeleteAward(_ context.Context, companyID, awardID string) error {
	for i, a := range t.st.awards {
		if a.ID == awardID && a.CompanyID == companyID {
			t.st.awards = append(t.st.awards[:i:i], t.st.awards[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) AttachAwards(_ context.Context, companyID, poID string, awardIDs []string) error {
	want := make(map[string]struct{}, len(awardIDs))
	for _, id := range awardIDs {
		want[id] = struct{}{}
	}
	attached := 0
	for i, a := range t.st.awards {
		if _, ok := want[a.ID]; !ok || a.CompanyID != companyID {
			continue
		}
		if a.PurchaseOrderID != nil {
			return fmt.Errorf("award %s already attached to purchase order %s", a.ID, *a.PurchaseOrderID)
		}
		id := poID
		t.st.awards[i].PurchaseOrderID = &id
		attached++
	}
	if attached != len(want) {
		return ErrNotFound
	}
	return nil
}

func (t *memTx) CancelAwards(_ context.Context, companyID, poID string, at time.Time) ([]Award, error) {
	var out []Award
	for i, a := range t.st.awards {
		if a.CompanyID != companyID || !a.IsActive() || a.PurchaseOrderID == nil || *a.PurchaseOrderID != poID {
			continue
		}
		when := at
		a.Status = AwardCancelled
		a.CancelledAt = &when
		t.st.awards[i] = a
		out = append(out, a)
	}
	return out, nil
}

func (t *memTx) UpdateRFQ(_ context.Context, rfq RFQ) error {
	cur, ok := t.st.rfqs[rfq.ID]
	if !ok || cur.CompanyID != rfq.CompanyID {
		return ErrNotFound
	}
	t.st.rfqs[rfq.ID] = rfq
	return nil
}

func (t *memTx) UpdateQuoteStatus(_ context.Context, companyID, quoteID string, status QuoteStatus) error {
	q, ok := t.st.quotes[quoteID]
	if !ok {
		return ErrNotFound
	}
	if rfq, ok := t.st.rfqs[q.RFQID]; !ok || rfq.CompanyID != companyID {
		return ErrNotFound
	}
	q.Status = status
	t.st.quotes[quoteID] = q
	return nil
}

func (t *memTx) InsertPurchaseOrder(_ context.Context, po PurchaseOrder) error {
	if _, exists := t.st.pos[po.ID]; exists {
		return fmt.Errorf("purchase order %s already exists", po.ID)
	}
	po.Lines = append([]PurchaseOrderLine(nil), po.Lines...)
	t.st.pos[po.ID] = po
	return nil
}

func (t *memTx) GetPurchaseOrder(_ context.Context, companyID, poID string) (PurchaseOrder, error) {
	po, ok := t.st.pos[poID]
	if !ok || po.CompanyID != companyID {
		return PurchaseOrder{}, ErrNotFound
	}
	po.Lines = append([]PurchaseOrderLine(nil), po.Lines...)
	return po, nil
}

func (t *memTx) LockPurchaseOrder(ctx context.Context, companyID, poID string) (PurchaseOrder, error) {
	return t.GetPurchaseOrder(ctx, companyID, poID)
}

func (t *memTx) UpdatePurchaseOrder(_ context.Context, po PurchaseOrder) error {
	cur, ok := t.st.pos[po.ID]
	if !ok || cur.CompanyID != po.CompanyID {
		return ErrNotFound
	}
	cur.Status = po.Status
	cur.CancelledAt = po.CancelledAt
	t.st.pos[po.ID] = cur
	return nil
}
