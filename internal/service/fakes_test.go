package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/queue"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

type reportKey struct {
	invoice uint64
	typ     model.ReportType
}

// fakeReports mimics the unique (invoice, type) key of the reports table.
type fakeReports struct {
	mu     sync.Mutex
	rows   map[reportKey]model.Report
	nextID uint64
	err    error
}

func newFakeReports() *fakeReports { return &fakeReports{rows: map[reportKey]model.Report{}} }

func (f *fakeReports) CreateOnce(_ context.Context, r *model.Report) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	k := reportKey{r.InvoiceID, r.Type}
	if _, ok := f.rows[k]; ok {
		return false, nil
	}
	f.nextID++
	r.ID = f.nextID
	f.rows[k] = *r
	return true, nil
}

func (f *fakeReports) get(invoice uint64, typ model.ReportType) (model.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[reportKey{invoice, typ}]
	return r, ok
}

func (f *fakeReports) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []model.ActivityLog
	err     error
}

func (f *fakeActivity) Append(_ context.Context, e *model.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeActivity) all() []model.ActivityLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ActivityLog(nil), f.entries...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (f *fakePublisher) PublishActivity(_ context.Context, ev queue.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

// fakeInvoices keeps invoices in memory.  Update serializes on mu the way
// the row lock serializes concurrent updates in MySQL.
type fakeInvoices struct {
	mu           sync.Mutex
	invoices     map[uint64]model.Invoice
	reservations map[uint64][]model.Reservation
	nextID       uint64
	getErr       error
	missing      []uint64
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{invoices: map[uint64]model.Invoice{}, reservations: map[uint64][]model.Reservation{}}
}

func (f *fakeInvoices) Create(_ context.Context, inv *model.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv.ID = f.nextID
	total := decimal.Zero
	for _, r := range f.reservations[inv.ID] {
		total = total.Add(r.TotalPrice)
	}
	if inv.TotalAmount.IsZero() {
		inv.TotalAmount = total
	}
	f.invoices[inv.ID] = *inv
	return nil
}

func (f *fakeInvoices) GetDetail(_ context.Context, id uint64) (model.InvoiceDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.InvoiceDetail{}, f.getErr
	}
	inv, ok := f.invoices[id]
	if !ok {
		return model.InvoiceDetail{}, repository.ErrInvoiceNotFound
	}
	return model.NewInvoiceDetail(inv, f.reservations[id]), nil
}

func (f *fakeInvoices) GetDetails(ctx context.Context, ids []uint64) ([]model.InvoiceDetail, error) {
	out := []model.InvoiceDetail{}
	for _, id := range ids {
		d, err := f.GetDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeInvoices) List(ctx context.Context, _ repository.InvoiceQuery) ([]model.InvoiceDetail, int64, error) {
	f.mu.Lock()
	ids := make([]uint64, 0, len(f.invoices))
	for id := range f.invoices {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	list, err := f.GetDetails(ctx, ids)
	return list, int64(len(list)), err
}

func (f *fakeInvoices) Update(_ context.Context, id uint64, patch model.InvoicePatch) (model.InvoiceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return "", repository.ErrInvoiceNotFound
	}
	prior := inv.Status
	patch.ApplyTo(&inv, fixedNow)
	f.invoices[id] = inv
	return prior, nil
}

func (f *fakeInvoices) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[id]; !ok {
		return repository.ErrInvoiceNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeInvoices) MissingReports(context.Context) ([]uint64, error) {
	return f.missing, nil
}
