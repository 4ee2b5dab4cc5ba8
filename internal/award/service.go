package award

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"procura.io/internal/ids"
	"procura.io/internal/obs"
)

// Service is the award engine: allocator, status projector, purchase order
// deriver and reversal handler behind one transactional boundary.
type Service struct {
	store    Store
	notifier Notifier
	auditor  Auditor
	now      func() time.Time
	newID    func() string
}

// dispatchTimeout bounds post-commit delivery to the auditor and notifier.
const dispatchTimeout = 5 * time.Second

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

// WithClock overrides the clock used for deadlines and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: nopNotifier{},
		auditor:  nopAuditor{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    ids.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AwardLines validates and persists a batch of line awards atomically. With
// opts.CreatePurchaseOrders the new awards are also converted into draft
// purchase orders inside the same transaction.
func (s *Service) AwardLines(ctx context.Context, t Tenant, rfqID string, pairs []LineAward, opts AwardOptions) (AwardResult, error) {
	if err := checkTenant(t); err != nil {
		return AwardResult{}, err
	}
	if len(pairs) == 0 {
		return AwardResult{}, invalid("awards", "at least one line award is required")
	}
	// The deadline is judged once, before any work starts.
	now := s.now()
	log := obs.FromContext(ctx).With(
		zap.String("rfq_id", rfqID),
		zap.String("company_id", t.CompanyID),
		zap.Int("pairs", len(pairs)),
	)

	var res AwardResult
	out := &outbox{tenant: t}
	err := s.store.InTx(ctx, func(tx Tx) error {
		rfq, err := tx.LockRFQ(ctx, t.CompanyID, rfqID)
		if err != nil {
			return err
		}
		if rfq.Status != RFQOpen {
			return fmt.Errorf("%w: status is %s", ErrRFQNotOpen, rfq.Status)
		}
		if rfq.DueAt != nil && now.After(*rfq.DueAt) {
			return ErrDeadlinePassed
		}

		lines, err := tx.RFQLines(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return err
		}
		quotes, err := tx.Quotes(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return err
		}
		quoteLines, err := tx.QuoteLines(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return err
		}
		existing, err := tx.Awards(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return err
		}

		created, err := s.buildAwards(t, rfq, pairs, lines, quotes, quoteLines, existing, now)
		if err != nil {
			return err
		}
		for _, a := range created {
			if err := tx.InsertAward(ctx, a); err != nil {
				return err
			}
			out.audit("award", a.ID, "award.created", nil, a)
		}

		if _, err := s.project(ctx, tx, t, rfq, out); err != nil {
			return err
		}

		res.Awards = created
		res.PurchaseOrders = []PurchaseOrder{}
		if opts.CreatePurchaseOrders {
			pos, err := s.derive(ctx, tx, t, rfq, created, out)
			if err != nil {
				return err
			}
			res.PurchaseOrders = pos
			byAward := make(map[string]string, len(created))
			for _, po := range pos {
				for _, l := range po.Lines {
					byAward[l.AwardID] = po.ID
				}
			}
			for i := range res.Awards {
				if poID, ok := byAward[res.Awards[i].ID]; ok {
					id := poID
					res.Awards[i].PurchaseOrderID = &id
				}
			}
		}

		for _, n := range lineOutcomes(rfq, created, lines, quotes, quoteLines, now) {
			out.notify(n)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyAwarded) {
			obs.AwardConflicts.Inc()
		}
		log.Info("award batch rejected", zap.Error(err))
		return AwardResult{}, err
	}

	obs.AwardsCreated.Add(float64(len(res.Awards)))
	obs.PurchaseOrdersCreated.Add(float64(len(res.PurchaseOrders)))
	log.Info("award batch committed",
		zap.Int("awards", len(res.Awards)),
		zap.Int("purchase_orders", len(res.PurchaseOrders)),
	)
	s.dispatch(ctx, out)
	return res, nil
}

// buildAwards validates every pair before anything is written. Validation
// problems win over conflicts so a malformed batch is never reported as a
// race.
func (s *Service) buildAwards(t Tenant, rfq RFQ, pairs []LineAward, lines []RfqLine, quotes []Quote, quoteLines []QuoteLine, existing []Award, now time.Time) ([]Award, error) {
	lineByID := make(map[string]RfqLine, len(lines))
	for _, l := range lines {
		lineByID[l.ID] = l
	}
	quoteByID := make(map[string]Quote, len(quotes))
	for _, q := range quotes {
		quoteByID[q.ID] = q
	}
	qlByID := make(map[string]QuoteLine, len(quoteLines))
	for _, ql := range quoteLines {
		qlByID[ql.ID] = ql
	}
	taken := make(map[string]struct{})
	for _, a := range existing {
		if a.IsActive() {
			taken[a.RfqLineID] = struct{}{}
		}
	}

	seenLines := make(map[string]struct{}, len(pairs))
	seenQuoteLines := make(map[string]struct{}, len(pairs))
	awards := make([]Award, 0, len(pairs))
	var conflicts []string
	for _, p := range pairs {
		lineID := strings.TrimSpace(p.RfqLineID)
		qlID := strings.TrimSpace(p.QuoteLineID)
		if lineID == "" {
			return nil, invalid("rfq_line_id", "is required")
		}
		if qlID == "" {
			return nil, invalid("quote_line_id", "is required")
		}
		if _, dup := seenLines[lineID]; dup {
			return nil, invalid("rfq_line_id", "line appears more than once in the batch", lineID)
		}
		seenLines[lineID] = struct{}{}
		if _, dup := seenQuoteLines[qlID]; dup {
			return nil, invalid("quote_line_id", "quote line appears more than once in the batch", qlID)
		}
		seenQuoteLines[qlID] = struct{}{}

		line, ok := lineByID[lineID]
		if !ok {
			return nil, invalid("rfq_line_id", "line does not belong to this RFQ", lineID)
		}
		ql, ok := qlByID[qlID]
		if !ok {
			return nil, invalid("quote_line_id", "quote line not found on this RFQ", qlID)
		}
		if ql.RfqLineID != line.ID {
			return nil, invalid("quote_line_id", "quote line does not quote the paired RFQ line", qlID)
		}
		quote, ok := quoteByID[ql.QuoteID]
		if !ok {
			return nil, invalid("quote_line_id", "quote line not found on this RFQ", qlID)
		}
		if !quote.Status.awardable() {
			return nil, invalid("quote_line_id", fmt.Sprintf("quote is %s", quote.Status), qlID)
		}

		qty := line.Quantity
		if p.Quantity != nil {
			qty = *p.Quantity
			if !qty.IsPositive() {
				return nil, invalid("awarded_qty", "must be greater than zero", lineID)
			}
			if qty.GreaterThan(line.Quantity) {
				return nil, invalid("awarded_qty", "exceeds the line quantity", lineID)
			}
		}

		if _, busy := taken[line.ID]; busy {
			conflicts = append(conflicts, line.ID)
			continue
		}
		awards = append(awards, Award{
			ID:          s.newID(),
			CompanyID:   t.CompanyID,
			RFQID:       rfq.ID,
			RfqLineID:   line.ID,
			SupplierID:  quote.SupplierID,
			QuoteID:     quote.ID,
			QuoteLineID: ql.ID,
			Quantity:    qty,
			UnitPrice:   ql.UnitPrice,
			AwardedBy:   t.ActorID,
			AwardedAt:   now,
			Status:      AwardActive,
		})
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAwarded, strings.Join(conflicts, ", "))
	}
	return awards, nil
}

// ConvertAwards materialises draft purchase orders, one per supplier, from
// awards of a single RFQ that have not been converted yet.
func (s *Service) ConvertAwards(ctx context.Context, t Tenant, awardIDs []string) ([]PurchaseOrder, error) {
	if err := checkTenant(t); err != nil {
		return nil, err
	}
	requested, err := normalizeIDs("award_ids", awardIDs)
	if err != nil {
		return nil, err
	}

	var pos []PurchaseOrder
	out := &outbox{tenant: t}
	err = s.store.InTx(ctx, func(tx Tx) error {
		awards, err := loadAwards(ctx, tx, t.CompanyID, requested)
		if err != nil {
			return err
		}
		rfqID := awards[0].RFQID
		var foreign []string
		for _, a := range awards {
			if a.RFQID != rfqID {
				foreign = append(foreign, a.ID)
			}
		}
		if len(foreign) > 0 {
			return invalid("award_ids", "awards must belong to the same RFQ", foreign...)
		}

		rfq, err := tx.LockRFQ(ctx, t.CompanyID, rfqID)
		if err != nil {
			return err
		}
		// Re-read under the RFQ lock so a concurrent conversion is seen.
		awards, err = loadAwards(ctx, tx, t.CompanyID, requested)
		if err != nil {
			return err
		}
		var converted, cancelled []string
		for _, a := range awards {
			switch {
			case !a.IsActive():
				cancelled = append(cancelled, a.ID)
			case a.Converted():
				converted = append(converted, a.ID)
			}
		}
		if len(converted) > 0 {
			return invalid("award_ids", "awards already converted to a purchase order", converted...)
		}
		if len(cancelled) > 0 {
			return invalid("award_ids", "awards are cancelled", cancelled...)
		}

		pos, err = s.derive(ctx, tx, t, rfq, awards, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	obs.PurchaseOrdersCreated.Add(float64(len(pos)))
	obs.FromContext(ctx).Info("awards converted",
		zap.String("company_id", t.CompanyID),
		zap.Int("awards", len(requested)),
		zap.Int("purchase_orders", len(pos)),
	)
	s.dispatch(ctx, out)
	return pos, nil
}

// DeleteAward removes an award that never reached a purchase order and
// returns the RFQ's remaining awards.
func (s *Service) DeleteAward(ctx context.Context, t Tenant, awardID string) ([]Award, error) {
	if err := checkTenant(t); err != nil {
		return nil, err
	}
	awardID = strings.TrimSpace(awardID)

	var remaining []Award
	out := &outbox{tenant: t}
	err := s.store.InTx(ctx, func(tx Tx) error {
		found, err := loadAwards(ctx, tx, t.CompanyID, []string{awardID})
		if err != nil {
			return err
		}
		rfq, err := tx.LockRFQ(ctx, t.CompanyID, found[0].RFQID)
		if err != nil {
			return err
		}
		found, err = loadAwards(ctx, tx, t.CompanyID, []string{awardID})
		if err != nil {
			return err
		}
		a := found[0]
		if a.Converted() {
			return invalid("po_id", "award already has a purchase order", a.ID)
		}
		if !a.IsActive() {
			return invalid("award_id", "award is cancelled", a.ID)
		}
		if err := tx.DeleteAward(ctx, t.CompanyID, a.ID); err != nil {
			return err
		}
		out.audit("award", a.ID, "award.deleted", a, nil)

		if _, err := s.project(ctx, tx, t, rfq, out); err != nil {
			return err
		}
		remaining, err = tx.Awards(ctx, t.CompanyID, rfq.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, out)
	return remaining, nil
}

// CancelPurchaseOrder cancels the order and every award it carries. The
// awards stay on record as cancelled and their lines become awardable again.
func (s *Service) CancelPurchaseOrder(ctx context.Context, t Tenant, poID string) (PurchaseOrder, error) {
	if err := checkTenant(t); err != nil {
		return PurchaseOrder{}, err
	}
	poID = strings.TrimSpace(poID)
	now := s.now()

	var po PurchaseOrder
	out := &outbox{tenant: t}
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetPurchaseOrder(ctx, t.CompanyID, poID)
		if err != nil {
			return err
		}
		// RFQ first, then the order: same lock order as the allocator.
		rfq, err := tx.LockRFQ(ctx, t.CompanyID, current.RFQID)
		if err != nil {
			return err
		}
		current, err = tx.LockPurchaseOrder(ctx, t.CompanyID, poID)
		if err != nil {
			return err
		}
		if current.Status == POCancelled {
			return ErrPurchaseOrderCancelled
		}

		po = current
		po.Status = POCancelled
		po.CancelledAt = &now
		if err := tx.UpdatePurchaseOrder(ctx, po); err != nil {
			return err
		}
		out.audit("purchase_order", po.ID, "purchase_order.cancelled", current, po)

		all, err := tx.Awards(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return err
		}
		before := make(map[string]Award)
		for _, a := range all {
			if a.IsActive() && a.PurchaseOrderID != nil && *a.PurchaseOrderID == po.ID {
				before[a.ID] = a
			}
		}
		cancelled, err := tx.CancelAwards(ctx, t.CompanyID, po.ID, now)
		if err != nil {
			return err
		}
		for _, a := range cancelled {
			out.audit("award", a.ID, "award.cancelled", before[a.ID], a)
		}

		_, err = s.project(ctx, tx, t, rfq, out)
		return err
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	obs.PurchaseOrdersCancelled.Inc()
	obs.FromContext(ctx).Info("purchase order cancelled",
		zap.String("company_id", t.CompanyID),
		zap.String("purchase_order_id", po.ID),
	)
	s.dispatch(ctx, out)
	return po, nil
}

// PublishRFQ opens a draft RFQ for quoting and awarding.
func (s *Service) PublishRFQ(ctx context.Context, t Tenant, rfqID string) (RFQ, error) {
	return s.transition(ctx, t, rfqID, "rfq.published", func(tx Tx, rfq RFQ) (RFQStatus, error) {
		if rfq.Status != RFQDraft {
			return "", &transitionError{reason: "Only draft RFQs can be published"}
		}
		lines, err := tx.RFQLines(ctx, t.CompanyID, rfq.ID)
		if err != nil {
			return "", err
		}
		if len(lines) == 0 {
			return "", invalid("rfq", "RFQ has no lines", rfq.ID)
		}
		return RFQOpen, nil
	})
}

func (s *Service) CloseRFQ(ctx context.Context, t Tenant, rfqID string) (RFQ, error) {
	return s.transition(ctx, t, rfqID, "rfq.closed", func(_ Tx, rfq RFQ) (RFQStatus, error) {
		if rfq.Status != RFQOpen {
			return "", &transitionError{reason: "Only open RFQs can be closed"}
		}
		return RFQClosed, nil
	})
}

func (s *Service) CancelRFQ(ctx context.Context, t Tenant, rfqID string) (RFQ, error) {
	return s.transition(ctx, t, rfqID, "rfq.cancelled", func(_ Tx, rfq RFQ) (RFQStatus, error) {
		switch rfq.Status {
		case RFQDraft, RFQOpen:
			return RFQCancelled, nil
		case RFQClosed:
			return "", &transitionError{reason: "Closed RFQs cannot be cancelled"}
		case RFQAwarded:
			return "", &transitionError{reason: "Awarded RFQs cannot be cancelled"}
		default:
			return "", &transitionError{reason: "RFQ is already cancelled"}
		}
	})
}

func (s *Service) transition(ctx context.Context, t Tenant, rfqID, action string, next func(Tx, RFQ) (RFQStatus, error)) (RFQ, error) {
	if err := checkTenant(t); err != nil {
		return RFQ{}, err
	}
	var updated RFQ
	out := &outbox{tenant: t}
	err := s.store.InTx(ctx, func(tx Tx) error {
		rfq, err := tx.LockRFQ(ctx, t.CompanyID, rfqID)
		if err != nil {
			return err
		}
		status, err := next(tx, rfq)
		if err != nil {
			return err
		}
		updated = rfq
		updated.Status = status
		updated.UpdatedAt = s.now()
		if err := tx.UpdateRFQ(ctx, updated); err != nil {
			return err
		}
		out.audit("rfq", rfq.ID, action, rfq, updated)
		return nil
	})
	if err != nil {
		return RFQ{}, err
	}
	s.dispatch(ctx, out)
	return updated, nil
}

func (s *Service) GetRFQ(ctx context.Context, t Tenant, rfqID string) (RFQ, error) {
	if err := checkTenant(t); err != nil {
		return RFQ{}, err
	}
	var rfq RFQ
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		rfq, err = tx.GetRFQ(ctx, t.CompanyID, rfqID)
		return err
	})
	return rfq, err
}

// ListAwards returns the RFQ's awards, cancelled history included.
func (s *Service) ListAwards(ctx context.Context, t Tenant, rfqID string) ([]Award, error) {
	if err := checkTenant(t); err != nil {
		return nil, err
	}
	var awards []Award
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetRFQ(ctx, t.CompanyID, rfqID); err != nil {
			return err
		}
		var err error
		awards, err = tx.Awards(ctx, t.CompanyID, rfqID)
		return err
	})
	return awards, err
}

func (s *Service) GetPurchaseOrder(ctx context.Context, t Tenant, poID string) (PurchaseOrder, error) {
	if err := checkTenant(t); err != nil {
		return PurchaseOrder{}, err
	}
	var po PurchaseOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		po, err = tx.GetPurchaseOrder(ctx, t.CompanyID, poID)
		return err
	})
	return po, err
}

// project recomputes RFQ and quote status from the awards visible inside tx
// and writes whatever changed.
func (s *Service) project(ctx context.Context, tx Tx, t Tenant, rfq RFQ, out *outbox) (RFQ, error) {
	lines, err := tx.RFQLines(ctx, t.CompanyID, rfq.ID)
	if err != nil {
		return rfq, err
	}
	awards, err := tx.Awards(ctx, t.CompanyID, rfq.ID)
	if err != nil {
		return rfq, err
	}
	quotes, err := tx.Quotes(ctx, t.CompanyID, rfq.ID)
	if err != nil {
		return rfq, err
	}

	p := Project(rfq, lines, awards, quotes)
	updated := rfq
	if rfq.Status != p.RFQStatus || rfq.IsPartiallyAwarded != p.IsPartiallyAwarded {
		updated.Status = p.RFQStatus
		updated.IsPartiallyAwarded = p.IsPartiallyAwarded
		updated.UpdatedAt = s.now()
		if err := tx.UpdateRFQ(ctx, updated); err != nil {
			return rfq, err
		}
		action := "rfq.coverage_changed"
		if rfq.Status != updated.Status {
			action = "rfq.status_changed"
		}
		out.audit("rfq", rfq.ID, action, rfq, updated)
	}

	for _, q := range quotes {
		next, ok := p.QuoteStatus[q.ID]
		if !ok || next == q.Status {
			continue
		}
		if err := tx.UpdateQuoteStatus(ctx, t.CompanyID, q.ID, next); err != nil {
			return rfq, err
		}
		after := q
		after.Status = next
		out.audit("quote", q.ID, "quote.status_changed", q, after)
	}
	return updated, nil
}

// derive runs the purchase order deriver over awards and persists the result.
func (s *Service) derive(ctx context.Context, tx Tx, t Tenant, rfq RFQ, awards []Award, out *outbox) ([]PurchaseOrder, error) {
	pos := DerivePurchaseOrders(rfq, awards, t.ActorID, s.now(), s.newID)
	byID := make(map[string]Award, len(awards))
	for _, a := range awards {
		byID[a.ID] = a
	}
	for _, po := range pos {
		if err := tx.InsertPurchaseOrder(ctx, po); err != nil {
			return nil, err
		}
		if err := tx.AttachAwards(ctx, t.CompanyID, po.ID, po.awardIDs()); err != nil {
			return nil, err
		}
		out.audit("purchase_order", po.ID, "purchase_order.created", nil, po)
		for _, id := range po.awardIDs() {
			before := byID[id]
			after := before
			poID := po.ID
			after.PurchaseOrderID = &poID
			out.audit("award", id, "award.converted", before, after)
		}
	}
	return pos, nil
}

// dispatch hands the committed side effects to the collaborators. Failures
// are logged; the transaction has already committed.
func (s *Service) dispatch(ctx context.Context, out *outbox) {
	if len(out.records) == 0 && len(out.notifications) == 0 {
		return
	}
	// Detached from request cancellation; request values such as the
	// request id are kept.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	log := obs.FromContext(ctx)
	for _, rec := range out.records {
		if err := s.auditor.Record(ctx, rec); err != nil {
			log.Warn("audit record failed",
				zap.String("entity_type", rec.EntityType),
				zap.String("entity_id", rec.EntityID),
				zap.Error(err),
			)
		}
	}
	for _, n := range out.notifications {
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn("notification enqueue failed",
				zap.String("type", string(n.Type)),
				zap.String("rfq_id", n.RFQID),
				zap.Error(err),
			)
		}
	}
}

// lineOutcomes builds one "line awarded" notification per winning quote and
// one "line lost" notification per competing quote that bid on a line of
// this batch and did not win it.
func lineOutcomes(rfq RFQ, created []Award, lines []RfqLine, quotes []Quote, quoteLines []QuoteLine, now time.Time) []Notification {
	seq := make(map[string]int, len(lines))
	for _, l := range lines {
		seq[l.ID] = l.Sequence
	}
	winnerByLine := make(map[string]string, len(created))
	won := make(map[string][]string)
	for _, a := range created {
		winnerByLine[a.RfqLineID] = a.QuoteID
		won[a.QuoteID] = append(won[a.QuoteID], a.RfqLineID)
	}
	lost := make(map[string][]string)
	for _, ql := range quoteLines {
		winner, awarded := winnerByLine[ql.RfqLineID]
		if !awarded || winner == ql.QuoteID {
			continue
		}
		lost[ql.QuoteID] = append(lost[ql.QuoteID], ql.RfqLineID)
	}

	var out []Notification
	for _, q := range quotes {
		if lineIDs, ok := won[q.ID]; ok {
			out = append(out, outcome(EventLineAwarded, rfq, q, lineIDs, seq, now))
		}
		if !q.Status.awardable() {
			continue
		}
		if lineIDs, ok := lost[q.ID]; ok {
			out = append(out, outcome(EventLineLost, rfq, q, lineIDs, seq, now))
		}
	}
	return out
}

func outcome(typ EventType, rfq RFQ, q Quote, lineIDs []string, seq map[string]int, now time.Time) Notification {
	sorted := append([]string(nil), lineIDs...)
	sort.SliceStable(sorted, func(i, j int) bool { return seq[sorted[i]] < seq[sorted[j]] })
	return Notification{
		Type:       typ,
		CompanyID:  rfq.CompanyID,
		Recipients: []string{q.SupplierID},
		RFQID:      rfq.ID,
		QuoteID:    q.ID,
		RfqLineIDs: sorted,
		OccurredAt: now,
	}
}

func loadAwards(ctx context.Context, tx Tx, companyID string, ids []string) ([]Award, error) {
	found, err := tx.AwardsByID(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Award, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	ordered := make([]Award, 0, len(ids))
	var missing []string
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, a)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: award %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return ordered, nil
}

func normalizeIDs(field string, raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, invalid(field, "at least one id is required")
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	var dups []string
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, invalid(field, "ids must not be empty")
		}
		if _, ok := seen[id]; ok {
			dups = append(dups, id)
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(dups) > 0 {
		return nil, invalid(field, "duplicate ids", dups...)
	}
	return out, nil
}

func checkTenant(t Tenant) error {
	if strings.TrimSpace(t.CompanyID) == "" || strings.TrimSpace(t.ActorID) == "" {
		return ErrTenantRequired
	}
	return nil
}
