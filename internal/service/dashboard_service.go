package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

// HistogramMonths is the number of buckets in the monthly reservation
// histogram, the current month included.
const HistogramMonths = 9

// LatestReservations is how many recent reservations the dashboard shows.
const LatestReservations = 5

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DashboardStore runs the aggregation queries.
type DashboardStore interface {
	Counts(ctx context.Context) (repository.Counts, error)
	SumIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	MonthlyReservationCounts(ctx context.Context, since time.Time) ([]model.MonthCount, error)
}

// LatestStore lists the newest reservations.
type LatestStore interface {
	Latest(ctx context.Context, n int) ([]model.Reservation, error)
}

// DashboardService assembles the dashboard payload.  Calendar months are
// taken in loc.
type DashboardService struct {
	store  DashboardStore
	latest LatestStore
	loc    *time.Location
	now    func() time.Time
}

func NewDashboardService(store DashboardStore, latest LatestStore, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{store: store, latest: latest, loc: loc, now: time.Now}
}

// Stats returns the counters, this month's Income total, the reservation
// histogram and the newest reservations.
func (s *DashboardService) Stats(ctx context.Context) (model.DashboardStats, error) {
	now := s.now().In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	counts, err := s.store.Counts(ctx)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard counts: %w", err)
	}
	revenue, err := s.store.SumIncome(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard revenue: %w", err)
	}
	rows, err := s.store.MonthlyReservationCounts(ctx, monthStart.AddDate(0, -(HistogramMonths-1), 0))
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard histogram: %w", err)
	}
	latest, err := s.latest.Latest(ctx, LatestReservations)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard latest reservations: %w", err)
	}

	return model.DashboardStats{
		TotalReservations:   counts.TotalReservations,
		PendingReservations: counts.PendingReservations,
		UnpaidInvoices:      counts.UnpaidInvoices,
		MonthlyRevenue:      revenue,
		MonthlyReservations: BuildMonthlyHistogram(now, rows),
		LatestReservations:  latest,
	}, nil
}

// BuildMonthlyHistogram returns HistogramMonths buckets ending with the
// month of now, oldest first.  Months missing from rows count zero and rows
// outside the window are ignored.
func BuildMonthlyHistogram(now time.Time, rows []model.MonthCount) []model.MonthlyBucket {
	counts := make(map[[2]int]int64, len(rows))
	for _, r := range rows {
		counts[[2]int{r.Year, r.Month}] += r.Count
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(HistogramMonths - 1), 0)
	out := make([]model.MonthlyBucket, 0, HistogramMonths)
	for i := 0; i < HistogramMonths; i++ {
		m := start.AddDate(0, i, 0)
		out = append(out, model.MonthlyBucket{
			Year:              m.Year(),
			Month:             int(m.Month()),
			MonthName:         monthNames[m.Month()-1],
			TotalReservations: counts[[2]int{m.Year(), int(m.Month())}],
		})
	}
	return out
}
