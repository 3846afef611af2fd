package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/printing"
	"github.com/iliyamo/travel-backoffice/internal/repository"
	"github.com/iliyamo/travel-backoffice/internal/service"
)

type fakeReservations struct {
	created *model.Reservation
	actor   string
	patch   model.ReservationPatch
	query   repository.ReservationQuery
	items   []model.Reservation
	err     error
}

func (f *fakeReservations) Create(_ context.Context, res *model.Reservation, actor string) error {
	if f.err != nil {
		return f.err
	}
	res.ID = 11
	f.created = res
	f.actor = actor
	return nil
}

func (f *fakeReservations) Get(_ context.Context, id uint64) (model.Reservation, error) {
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	return model.Reservation{ID: id, Name: "Budi"}, nil
}

func (f *fakeReservations) Update(_ context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error) {
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	f.patch = patch
	return model.Reservation{ID: id}, nil
}

func (f *fakeReservations) Delete(context.Context, uint64) error { return f.err }

func (f *fakeReservations) Search(_ context.Context, q repository.ReservationQuery) ([]model.Reservation, int64, error) {
	f.query = q
	return f.items, int64(len(f.items)), f.err
}

type fakeInvoices struct {
	in     service.NewInvoice
	patch  model.InvoicePatch
	actor  string
	ids    []uint64
	detail model.InvoiceDetail
	err    error
}

func (f *fakeInvoices) Create(_ context.Context, in service.NewInvoice) (model.InvoiceDetail, error) {
	f.in = in
	return f.detail, f.err
}

func (f *fakeInvoices) Get(_ context.Context, id uint64) (model.InvoiceDetail, error) {
	if f.err != nil {
		return model.InvoiceDetail{}, f.err
	}
	d := f.detail
	d.ID = id
	return d, nil
}

func (f *fakeInvoices) GetMany(_ context.Context, ids []uint64) ([]model.InvoiceDetail, error) {
	f.ids = ids
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.InvoiceDetail, 0, len(ids))
	for _, id := range ids {
		d := f.detail
		d.ID = id
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeInvoices) List(context.Context, repository.InvoiceQuery) ([]model.InvoiceDetail, int64, error) {
	return []model.InvoiceDetail{f.detail}, 1, f.err
}

func (f *fakeInvoices) Update(_ context.Context, id uint64, patch model.InvoicePatch, actor string) (model.InvoiceDetail, error) {
	f.patch = patch
	f.actor = actor
	d := f.detail
	d.ID = id
	return d, f.err
}

func (f *fakeInvoices) Delete(context.Context, uint64) error { return f.err }

type fakePrinter struct {
	got []model.InvoiceDetail
	err error
}

func (f *fakePrinter) Print(_ context.Context, invoices []model.InvoiceDetail) (printing.Document, error) {
	f.got = invoices
	if f.err != nil {
		return printing.Document{}, f.err
	}
	return printing.Document{Filename: "Invoice_Budi_2026-10-16.pdf", PDF: []byte("%PDF-1.4 test")}, nil
}

type fakeReports struct {
	query repository.ReportQuery
	err   error
}

func (f *fakeReports) List(_ context.Context, q repository.ReportQuery) ([]model.ReportDetail, error) {
	f.query = q
	return []model.ReportDetail{{}, {}}, f.err
}

func (f *fakeReports) GetDetail(context.Context, uint64) (model.ReportDetail, error) {
	return model.ReportDetail{}, f.err
}

type fakeActivity struct {
	query repository.ActivityQuery
}

func (f *fakeActivity) List(_ context.Context, q repository.ActivityQuery) ([]model.ActivityLog, error) {
	f.query = q
	return []model.ActivityLog{}, nil
}

type fakeDashboard struct {
	stats model.DashboardStats
	err   error
}

func (f fakeDashboard) Stats(context.Context) (model.DashboardStats, error) { return f.stats, f.err }

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

// fakeUsers stores accounts by email with pre-hashed passwords.
type fakeUsers struct {
	mu     sync.Mutex
	byMail map[string]model.User
	nextID uint64
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byMail: map[string]model.User{}, nextID: 100}
	for _, u := range users {
		f.byMail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, email, _, role string, _ int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byMail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	f.byMail[email] = model.User{ID: f.nextID, Email: email, Role: role, IsActive: true}
	return f.nextID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byMail[email]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byMail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

// fakeTokens keeps refresh hashes in memory.
type fakeTokens struct {
	mu         sync.Mutex
	active     map[string]uint64
	revokedAll []uint64
}

func newFakeTokens() *fakeTokens { return &fakeTokens{active: map[string]uint64{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[hash] = userID
	return nil
}

func (f *fakeTokens) Rotate(_ context.Context, oldHash, newHash string, _ time.Time) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.active[oldHash]
	if !ok {
		return 0, repository.ErrTokenInvalid
	}
	delete(f.active, oldHash)
	f.active[newHash] = uid
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[hash]; !ok {
		return repository.ErrTokenInvalid
	}
	delete(f.active, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, uid := range f.active {
		if uid == userID {
			delete(f.active, h)
		}
	}
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

var errBoom = errors.New("boom")
