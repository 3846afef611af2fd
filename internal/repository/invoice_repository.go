package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ErrNoReservations is returned when an invoice would bill nothing.
var ErrNoReservations = errors.New("invoice needs at least one reservation")

// InvoiceRepo persists invoices and the ordered list of reservations each
// one bills (invoice_reservations).
type InvoiceRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db, now: time.Now}
}

// InvoiceQuery defines filters & pagination for listing invoices.
type InvoiceQuery struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

const invoiceSelect = `SELECT id, customer_name, total_amount, fee, payment_method,
       issued_date, due_date, payment_date, status, created_at, updated_at
FROM invoices`

func scanInvoice(s rowScanner) (model.Invoice, error) {
	var inv model.Invoice
	err := s.Scan(&inv.ID, &inv.CustomerName, &inv.TotalAmount, &inv.Fee, &inv.PaymentMethod,
		&inv.IssuedDate, &inv.DueDate, &inv.PaymentDate, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func getInvoice(ctx context.Context, q queryer, id uint64, lock bool) (model.Invoice, error) {
	query := invoiceSelect + ` WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

// Create bills the given reservations.  The referenced reservations are
// locked, must exist and must not be billed yet; total_amount is the sum of
// their total prices.  The stored invoice is written back into inv.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	ids := uniqueIDs(inv.ReservationIDs)
	if len(ids) == 0 {
		return ErrNoReservations
	}
	var id uint64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT r.id, r.total_price, ir.invoice_id FROM reservations r
             LEFT JOIN invoice_reservations ir ON ir.reservation_id = r.id
             WHERE r.id IN (`+placeholders(len(ids))+`) FOR UPDATE`, uint64Args(ids)...)
		if err != nil {
			return err
		}
		found := 0
		total := decimal.Zero
		billed := false
		for rows.Next() {
			var (
				rid       uint64
				price     decimal.Decimal
				invoiceID sql.NullInt64
			)
			if err := rows.Scan(&rid, &price, &invoiceID); err != nil {
				rows.Close()
				return err
			}
			found++
			total = total.Add(price)
			billed = billed || invoiceID.Valid
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if found != len(ids) {
			return ErrReservationNotFound
		}
		if billed {
			return ErrReservationBilled
		}
		inv.TotalAmount = total

		res, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (customer_name, total_amount, fee, payment_method, issued_date, due_date, payment_date, status)
             VALUES (?,?,?,?,?,?,?,?)`,
			inv.CustomerName, inv.TotalAmount, inv.Fee, inv.PaymentMethod,
			inv.IssuedDate, inv.DueDate, inv.PaymentDate, inv.Status)
		if err != nil {
			return err
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(lastID)

		args := make([]any, 0, len(ids)*3)
		values := make([]string, 0, len(ids))
		for pos, rid := range ids {
			values = append(values, "(?,?,?)")
			args = append(args, id, rid, pos)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_reservations (invoice_id, reservation_id, position) VALUES `+strings.Join(values, ","),
			args...); err != nil {
			if isDuplicate(err) {
				return ErrReservationBilled
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	saved, err := getInvoice(ctx, r.db, id, false)
	if err != nil {
		return err
	}
	saved.ReservationIDs = ids
	*inv = saved
	return nil
}

// GetDetail returns the invoice with its reservations in invoice order.
func (r *InvoiceRepo) GetDetail(ctx context.Context, id uint64) (model.InvoiceDetail, error) {
	inv, err := getInvoice(ctx, r.db, id, false)
	if err != nil {
		return model.InvoiceDetail{}, err
	}
	byInvoice, err := listByInvoices(ctx, r.db, []uint64{id})
	if err != nil {
		return model.InvoiceDetail{}, err
	}
	return composeDetail(inv, byInvoice[id]), nil
}

// GetDetails loads several invoices, preserving the order of ids.  Any
// unknown id yields ErrInvoiceNotFound.
func (r *InvoiceRepo) GetDetails(ctx context.Context, ids []uint64) ([]model.InvoiceDetail, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.InvoiceDetail{}, nil
	}
	rows, err := r.db.QueryContext(ctx, invoiceSelect+` WHERE id IN (`+placeholders(len(ids))+`)`, uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	invoices, err := scanInvoices(rows)
	if err != nil {
		return nil, err
	}
	if len(invoices) != len(ids) {
		return nil, ErrInvoiceNotFound
	}
	byInvoice, err := listByInvoices(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}
	out := make([]model.InvoiceDetail, 0, len(ids))
	for _, id := range ids {
		out = append(out, composeDetail(byID[id], byInvoice[id]))
	}
	return out, nil
}

// List returns one page of invoices with their reservations, newest first.
func (r *InvoiceRepo) List(ctx context.Context, q InvoiceQuery) ([]model.InvoiceDetail, int64, error) {
	where := []string{}
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, "LOWER(customer_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(q.Page, q.PageSize)
	rows, err := r.db.QueryContext(ctx,
		invoiceSelect+` WHERE `+cond+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), size, (page-1)*size)...)
	if err != nil {
		return nil, 0, err
	}
	invoices, err := scanInvoices(rows)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint64, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	byInvoice, err := listByInvoices(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.InvoiceDetail, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, composeDetail(inv, byInvoice[inv.ID]))
	}
	return out, total, nil
}

// Update applies patch to the invoice and returns the status it had before
// the write.  The prior status is read with a row lock in the same
// transaction, so concurrent updates of one invoice are serialized and each
// observes the status left by the previous one.
func (r *InvoiceRepo) Update(ctx context.Context, id uint64, patch model.InvoicePatch) (model.InvoiceStatus, error) {
	var prior model.InvoiceStatus
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		inv, err := getInvoice(ctx, tx, id, true)
		if err != nil {
			return err
		}
		prior = inv.Status
		patch.ApplyTo(&inv, r.now())
		_, err = tx.ExecContext(ctx,
			`UPDATE invoices SET fee = ?, payment_method = ?, issued_date = ?, due_date = ?, payment_date = ?, status = ?
             WHERE id = ?`,
			inv.Fee, inv.PaymentMethod, inv.IssuedDate, inv.DueDate, inv.PaymentDate, inv.Status, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return prior, nil
}

// Delete removes an invoice together with its reports and its activity
// entries; its reservations become billable again.
func (r *InvoiceRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM invoices WHERE id = ? FOR UPDATE`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE invoice_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM activity_logs WHERE reference_type = ? AND reference_id = ?`,
			model.ReferenceInvoice, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_reservations WHERE invoice_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
		return err
	})
}

// MissingReports lists invoices lacking the report their current status
// calls for: Expense for Unpaid, Income for Paid.
func (r *InvoiceRepo) MissingReports(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT i.id FROM invoices i
        LEFT JOIN reports rp ON rp.invoice_id = i.id
             AND rp.type = CASE i.status WHEN 'Paid' THEN 'Income' ELSE 'Expense' END
        WHERE rp.id IS NULL
        ORDER BY i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanInvoices(rows *sql.Rows) ([]model.Invoice, error) {
	defer rows.Close()
	out := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func composeDetail(inv model.Invoice, reservations []model.Reservation) model.InvoiceDetail {
	inv.ReservationIDs = make([]uint64, len(reservations))
	for i, res := range reservations {
		inv.ReservationIDs[i] = res.ID
	}
	return model.NewInvoiceDetail(inv, reservations)
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
