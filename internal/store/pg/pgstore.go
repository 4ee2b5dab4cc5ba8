package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"procura.io/internal/award"
)

// Store is the Postgres implementation of award.Store.
type Store struct {
	db *sql.DB
}

var _ award.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn inside one read-committed transaction. Competing writers are
// serialised by row locks on the RFQ, and the partial unique indexes on
// awards catch anything that slips past them.
func (s *Store) InTx(ctx context.Context, fn func(tx award.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Unique indexes that guard the single-active-award rule.
var activeAwardIndexes = map[string]bool{
	"awards_one_active_per_line":       true,
	"awards_one_active_per_quote_line": true,
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && activeAwardIndexes[pgErr.ConstraintName] {
		return award.ErrAlreadyAwarded
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

type pgTx struct {
	tx *sql.Tx
}

const rfqColumns = `id, company_id, title, status, is_partially_awarded, currency, incoterm, due_at, created_at, updated_at`

func scanRFQ(row scanner) (award.RFQ, error) {
	var (
		r   award.RFQ
		due sql.NullTime
	)
	err := row.Scan(&r.ID, &r.CompanyID, &r.Title, &r.Status, &r.IsPartiallyAwarded, &r.Currency, &r.Incoterm, &due, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return award.RFQ{}, award.ErrNotFound
	}
	if err != nil {
		return award.RFQ{}, err
	}
	if due.Valid {
		t := due.Time
		r.DueAt = &t
	}
	return r, nil
}

func (t *pgTx) GetRFQ(ctx context.Context, companyID, rfqID string) (award.RFQ, error) {
	return scanRFQ(t.tx.QueryRowContext(ctx,
		`select `+rfqColumns+` from rfqs where id = $1 and company_id = $2`, rfqID, companyID))
}

func (t *pgTx) LockRFQ(ctx context.Context, companyID, rfqID string) (award.RFQ, error) {
	return scanRFQ(t.tx.QueryRowContext(ctx,
		`select `+rfqColumns+` from rfqs where id = $1 and company_id = $2 for update`, rfqID, companyID))
}

func (t *pgTx) RFQLines(ctx context.Context, companyID, rfqID string) ([]award.RfqLine, error) {
	rows, err := t.tx.QueryContext(ctx, `
		select l.id, l.rfq_id, l.sequence, l.description, l.quantity, l.target_price, l.currency
		from rfq_lines l
		join rfqs r on r.id = l.rfq_id
		where l.rfq_id = $1 and r.company_id = $2
		order by l.sequence`, rfqID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []award.RfqLine
	for rows.Next() {
		var l award.RfqLine
		if err := rows.Scan(&l.ID, &l.RFQID, &l.Sequence, &l.Description, &l.Quantity, &l.TargetPrice, &l.Currency); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) Quotes(ctx context.Context, companyID, rfqID string) ([]award.Quote, error) {
	rows, err := t.tx.QueryContext(ctx, `
		select q.id, q.rfq_id, q.supplier_id, q.status, q.submitted_at
		from quotes q
		join rfqs r on r.id = q.rfq_id
		where q.rfq_id = $1 and r.company_id = $2
		order by q.id`, rfqID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []award.Quote
	for rows.Next() {
		var (
			q         award.Quote
			submitted sql.NullTime
		)
		if err := rows.Scan(&q.ID, &q.RFQID, &q.SupplierID, &q.Status, &submitted); err != nil {
			return nil, err
		}
		if submitted.Valid {
			ts := submitted.Time
			q.SubmittedAt = &ts
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (t *pgTx) QuoteLines(ctx context.Context, companyID, rfqID string) ([]award.QuoteLine, error) {
	rows, err := t.tx.QueryContext(ctx, `
		select ql.id, ql.quote_id, ql.rfq_line_id, ql.unit_price, ql.lead_time_days
		from quote_lines ql
		join quotes q on q.id = ql.quote_id
		join rfqs r on r.id = q.rfq_id
		where q.rfq_id = $1 and r.company_id = $2
		order by ql.id`, rfqID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []award.QuoteLine
	for rows.Next() {
		var ql award.QuoteLine
		if err := rows.Scan(&ql.ID, &ql.QuoteID, &ql.RfqLineID, &ql.UnitPrice, &ql.LeadTimeDays); err != nil {
			return nil, err
		}
		out = append(out, ql)
	}
	return out, rows.Err()
}

const awardColumns = `id, company_id, rfq_id, rfq_line_id, supplier_id, quote_id, quote_line_id, quantity, unit_price, awarded_by, awarded_at, status, cancelled_at, purchase_order_id`

func scanAwards(rows *sql.Rows) ([]award.Award, error) {
	defer rows.Close()
	var out []award.Award
	for rows.Next() {
		var (
			a         award.Award
			cancelled sql.NullTime
			poID      sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.RFQID, &a.RfqLineID, &a.SupplierID, &a.QuoteID, &a.QuoteLineID,
			&a.Quantity, &a.UnitPrice, &a.AwardedBy, &a.AwardedAt, &a.Status, &cancelled, &poID); err != nil {
			return nil, err
		}
		if cancelled.Valid {
			ts := cancelled.Time
			a.CancelledAt = &ts
		}
		if poID.Valid {
			id := poID.String
			a.PurchaseOrderID = &id
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *pgTx) Awards(ctx context.Context, companyID, rfqID string) ([]award.Award, error) {
	rows, err := t.tx.QueryContext(ctx,
		`select `+awardColumns+` from awards where rfq_id = $1 and company_id = $2 order by awarded_at, id`,
		rfqID, companyID)
	if err != nil {
		return nil, err
	}
	return scanAwards(rows)
}

func (t *pgTx) AwardsByID(ctx context.Context, companyID string, ids []string) ([]award.Award, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, companyID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := t.tx.QueryContext(ctx,
		`select `+awardColumns+` from awards where company_id = $1 and id in (`+placeholders(2, len(ids))+`) order by awarded_at, id`,
		args...)
	if err != nil {
		return nil, err
	}
	return scanAwards(rows)
}

func (t *pgTx) InsertAward(ctx context.Context, a award.Award) error {
	_, err := t.tx.ExecContext(ctx, `
		insert into awards(`+awardColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.CompanyID, a.RFQID, a.RfqLineID, a.SupplierID, a.QuoteID, a.QuoteLineID,
		a.Quantity, a.UnitPrice, a.AwardedBy, a.AwardedAt, string(a.Status), nullTime(a.CancelledAt), nullString(a.PurchaseOrderID))
	if err != nil {
		return mapError(fmt.Errorf("insert award: %w", err))
	}
	return nil
}

func (t *pgTx) DeleteAward(ctx context.Context, companyID, awardID string) error {
	res, err := t.tx.ExecContext(ctx, `delete from awards where id = $1 and company_id = $2`, awardID, companyID)
	if err != nil {
		return fmt.Errorf("delete award: %w", err)
	}
	return expectRows(res, 1)
}

func (t *pgTx) AttachAwards(ctx context.Context, companyID, poID string, awardIDs []string) error {
	for _, id := range awardIDs {
		res, err := t.tx.ExecContext(ctx, `
			update awards set purchase_order_id = $1
			where id = $2 and company_id = $3 and purchase_order_id is null`, poID, id, companyID)
		if err != nil {
			return fmt.Errorf("attach award %s: %w", id, err)
		}
		if err := expectRows(res, 1); err != nil {
			return fmt.Errorf("attach award %s: %w", id, err)
		}
	}
	return nil
}

func (t *pgTx) CancelAwards(ctx context.Context, companyID, poID string, at time.Time) ([]award.Award, error) {
	rows, err := t.tx.QueryContext(ctx, `
		update awards set status = 'cancelled', cancelled_at = $1
		where company_id = $2 and purchase_order_id = $3 and status = 'active'
		returning `+awardColumns, at, companyID, poID)
	if err != nil {
		return nil, fmt.Errorf("cancel awards: %w", err)
	}
	return scanAwards(rows)
}

func (t *pgTx) UpdateRFQ(ctx context.Context, r award.RFQ) error {
	res, err := t.tx.ExecContext(ctx, `
		update rfqs set status = $1, is_partially_awarded = $2, updated_at = $3
		where id = $4 and company_id = $5`,
		string(r.Status), r.IsPartiallyAwarded, r.UpdatedAt, r.ID, r.CompanyID)
	if err != nil {
		return fmt.Errorf("update rfq: %w", err)
	}
	return expectRows(res, 1)
}

func (t *pgTx) UpdateQuoteStatus(ctx context.Context, companyID, quoteID string, status award.QuoteStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		update quotes q set status = $1
		from rfqs r
		where q.id = $2 and r.id = q.rfq_id and r.company_id = $3`,
		string(status), quoteID, companyID)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	return expectRows(res, 1)
}

func (t *pgTx) InsertPurchaseOrder(ctx context.Context, po award.PurchaseOrder) error {
	if _, err := t.tx.ExecContext(ctx, `
		insert into purchase_orders(id, company_id, rfq_id, supplier_id, status, currency, incoterm, subtotal, created_by, created_at, cancelled_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		po.ID, po.CompanyID, po.RFQID, po.SupplierID, string(po.Status), po.Currency, po.Incoterm,
		po.Subtotal, po.CreatedBy, po.CreatedAt, nullTime(po.CancelledAt)); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	for _, l := range po.Lines {
		if _, err := t.tx.ExecContext(ctx, `
			insert into purchase_order_lines(id, purchase_order_id, award_id, rfq_line_id, quote_line_id, quantity, unit_price, line_total)
			values ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, po.ID, l.AwardID, l.RfqLineID, l.QuoteLineID, l.Quantity, l.UnitPrice, l.LineTotal); err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

func (t *pgTx) GetPurchaseOrder(ctx context.Context, companyID, poID string) (award.PurchaseOrder, error) {
	return t.purchaseOrder(ctx, companyID, poID, "")
}

func (t *pgTx) LockPurchaseOrder(ctx context.Context, companyID, poID string) (award.PurchaseOrder, error) {
	return t.purchaseOrder(ctx, companyID, poID, " for update")
}

func (t *pgTx) purchaseOrder(ctx context.Context, companyID, poID, lock string) (award.PurchaseOrder, error) {
	var (
		po        award.PurchaseOrder
		cancelled sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, `
		select id, company_id, rfq_id, supplier_id, status, currency, incoterm, subtotal, created_by, created_at, cancelled_at
		from purchase_orders where id = $1 and company_id = $2`+lock, poID, companyID).
		Scan(&po.ID, &po.CompanyID, &po.RFQID, &po.SupplierID, &po.Status, &po.Currency, &po.Incoterm,
			&po.Subtotal, &po.CreatedBy, &po.CreatedAt, &cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return award.PurchaseOrder{}, award.ErrNotFound
	}
	if err != nil {
		return award.PurchaseOrder{}, err
	}
	if cancelled.Valid {
		ts := cancelled.Time
		po.CancelledAt = &ts
	}

	rows, err := t.tx.QueryContext(ctx, `
		select id, purchase_order_id, award_id, rfq_line_id, quote_line_id, quantity, unit_price, line_total
		from purchase_order_lines where purchase_order_id = $1 order by id`, po.ID)
	if err != nil {
		return award.PurchaseOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l award.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.AwardID, &l.RfqLineID, &l.QuoteLineID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return award.PurchaseOrder{}, err
		}
		po.Lines = append(po.Lines, l)
	}
	return po, rows.Err()
}

func (t *pgTx) UpdatePurchaseOrder(ctx context.Context, po award.PurchaseOrder) error {
	res, err := t.tx.ExecContext(ctx, `
		update purchase_orders set status = $1, cancelled_at = $2
		where id = $3 and company_id = $4`,
		string(po.Status), nullTime(po.CancelledAt), po.ID, po.CompanyID)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	return expectRows(res, 1)
}

func expectRows(res sql.Result, want int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != want {
		return award.ErrNotFound
	}
	return nil
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Ping checks database connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
