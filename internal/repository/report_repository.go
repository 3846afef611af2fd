package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ReportRepo persists derived financial reports.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// ReportQuery filters the report list.
type ReportQuery struct {
	Type      string
	InvoiceID uint64
}

// CreateOnce inserts rep unless a report of the same type already exists for
// the invoice.  The check and the insert are a single statement against the
// unique (invoice_id, type) key, so concurrent callers cannot both create
// one.  created is false when the report already existed.
func (r *ReportRepo) CreateOnce(ctx context.Context, rep *model.Report) (bool, error) {
	if rep.CreatedBy == "" {
		rep.CreatedBy = model.SystemActor
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (invoice_id, type, amount, description, created_by)
         VALUES (?,?,?,?,?)
         ON DUPLICATE KEY UPDATE id = id`,
		rep.InvoiceID, rep.Type, rep.Amount, rep.Description, rep.CreatedBy)
	if err != nil {
		return false, err
	}
	// MySQL reports 1 affected row for an insert and 0 when the duplicate
	// branch left the existing row untouched.
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return true, err
	}
	rep.ID = uint64(id)
	return true, nil
}

// ListByInvoice returns every report derived from one invoice.
func (r *ReportRepo) ListByInvoice(ctx context.Context, invoiceID uint64) ([]model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, type, amount, description, created_by, created_at
         FROM reports WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Report{}
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.InvoiceID, &rep.Type, &rep.Amount, &rep.Description, &rep.CreatedBy, &rep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// reportDetailSelect joins a report with its invoice and the ticket id of
// the invoice's first reservation.
const reportDetailSelect = `SELECT rp.id, rp.invoice_id, rp.type, rp.amount, rp.description, rp.created_by, rp.created_at,
       i.id, i.customer_name, i.status, i.total_amount, i.fee,
       (SELECT res.ticket_id FROM invoice_reservations ir
          JOIN reservations res ON res.id = ir.reservation_id
         WHERE ir.invoice_id = i.id ORDER BY ir.position LIMIT 1)
FROM reports rp
JOIN invoices i ON i.id = rp.invoice_id`

func scanReportDetail(s rowScanner) (model.ReportDetail, error) {
	var d model.ReportDetail
	err := s.Scan(&d.ID, &d.InvoiceID, &d.Type, &d.Amount, &d.Description, &d.CreatedBy, &d.CreatedAt,
		&d.Invoice.ID, &d.Invoice.CustomerName, &d.Invoice.Status, &d.Invoice.TotalAmount, &d.Invoice.Fee,
		&d.Invoice.TicketID)
	return d, err
}

// List returns reports matching q, newest first.
func (r *ReportRepo) List(ctx context.Context, q ReportQuery) ([]model.ReportDetail, error) {
	query := reportDetailSelect + ` WHERE 1=1`
	args := []any{}
	if q.Type != "" {
		query += ` AND rp.type = ?`
		args = append(args, q.Type)
	}
	if q.InvoiceID != 0 {
		query += ` AND rp.invoice_id = ?`
		args = append(args, q.InvoiceID)
	}
	query += ` ORDER BY rp.created_at DESC, rp.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReportDetail{}
	for rows.Next() {
		d, err := scanReportDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetail returns one report or ErrReportNotFound.
func (r *ReportRepo) GetDetail(ctx context.Context, id uint64) (model.ReportDetail, error) {
	d, err := scanReportDetail(r.db.QueryRowContext(ctx, reportDetailSelect+` WHERE rp.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReportDetail{}, ErrReportNotFound
	}
	return d, err
}
