package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ReservationQuery defines filters & pagination for listing reservations.
// Invoiced == false restricts the list to reservations that can still be
// billed.
type ReservationQuery struct {
	Search        string
	Status        string
	PaymentStatus string
	Type          string
	TransportType string
	Invoiced      *bool
	Page          int
	PageSize      int
}

// Search returns one page of reservations matching q, newest first, and the
// total number of matches.
func (r *ReservationRepo) Search(ctx context.Context, q ReservationQuery) ([]model.Reservation, int64, error) {
	where := []string{}
	args := []any{}

	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(r.name) LIKE ? OR LOWER(r.ticket_id) LIKE ? OR LOWER(r.destination) LIKE ? OR r.nik LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if q.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, q.Status)
	}
	if q.PaymentStatus != "" {
		where = append(where, "r.payment_status = ?")
		args = append(args, q.PaymentStatus)
	}
	if q.Type != "" {
		where = append(where, "r.type = ?")
		args = append(args, q.Type)
	}
	if q.TransportType != "" {
		where = append(where, "r.transport_type = ?")
		args = append(args, q.TransportType)
	}
	if q.Invoiced != nil {
		if *q.Invoiced {
			where = append(where, "ir.invoice_id IS NOT NULL")
		} else {
			where = append(where, "ir.invoice_id IS NULL")
		}
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM reservations r
		LEFT JOIN invoice_reservations ir ON ir.reservation_id = r.id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(q.Page, q.PageSize)
	dataSQL := reservationSelect + ` WHERE ` + cond + ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
