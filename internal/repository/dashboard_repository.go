package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// DashboardRepo runs the read-only aggregation queries behind the dashboard.
type DashboardRepo struct {
	db *sql.DB
}

// NewDashboardRepo returns a new DashboardRepo bound to the given database.
func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Counts holds the headline numbers.
type Counts struct {
	TotalReservations   int64
	PendingReservations int64
	UnpaidInvoices      int64
}

// Counts returns reservation and invoice counters in one round trip.
func (r *DashboardRepo) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.db.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(*) FROM reservations),
        (SELECT COUNT(*) FROM reservations WHERE status = ?),
        (SELECT COUNT(*) FROM invoices WHERE status = ?)`,
		model.ReservationBooked, model.InvoiceUnpaid,
	).Scan(&c.TotalReservations, &c.PendingReservations, &c.UnpaidInvoices)
	return c, err
}

// SumIncome totals Income reports created in [from, to).
func (r *DashboardRepo) SumIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM reports WHERE type = ? AND created_at >= ? AND created_at < ?`,
		model.ReportIncome, from.UTC(), to.UTC(),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// MonthlyReservationCounts groups reservations with a travel date on or
// after since by calendar month, oldest first.  Months without reservations
// are absent.
func (r *DashboardRepo) MonthlyReservationCounts(ctx context.Context, since time.Time) ([]model.MonthCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT YEAR(date) AS y, MONTH(date) AS m, COUNT(*)
         FROM reservations WHERE date >= ?
         GROUP BY y, m ORDER BY y, m`,
		since.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MonthCount{}
	for rows.Next() {
		var mc model.MonthCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}
