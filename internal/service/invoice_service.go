package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

// InvoiceStore is the persistence InvoiceService needs.
type InvoiceStore interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetDetail(ctx context.Context, id uint64) (model.InvoiceDetail, error)
	GetDetails(ctx context.Context, ids []uint64) ([]model.InvoiceDetail, error)
	List(ctx context.Context, q repository.InvoiceQuery) ([]model.InvoiceDetail, int64, error)
	Update(ctx context.Context, id uint64, patch model.InvoicePatch) (model.InvoiceStatus, error)
	Delete(ctx context.Context, id uint64) error
}

// InvoiceDefaults are applied to new invoices that leave fields out.
type InvoiceDefaults struct {
	Fee      decimal.Decimal
	DueDays  int
	Location *time.Location
}

// NewInvoice is the input of InvoiceService.Create.  Nil pointers and empty
// values take the configured defaults.
type NewInvoice struct {
	CustomerName   string
	ReservationIDs []uint64
	Fee            *decimal.Decimal
	PaymentMethod  string
	IssuedDate     *time.Time
	DueDate        *time.Time
	PaymentDate    *time.Time
	Status         model.InvoiceStatus
}

// InvoiceService runs invoice writes and the settlement derivation that
// follows them.  Derivation happens after the invoice write has committed;
// its failures are logged and never change the outcome of the call.
type InvoiceService struct {
	store    InvoiceStore
	deriver  *SettlementDeriver
	defaults InvoiceDefaults
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewInvoiceService wires the service.  timeout bounds each derivation.
func NewInvoiceService(store InvoiceStore, deriver *SettlementDeriver, defaults InvoiceDefaults, timeout time.Duration, logger zerolog.Logger) *InvoiceService {
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InvoiceService{
		store:    store,
		deriver:  deriver,
		defaults: defaults,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores the invoice and derives its initial report.
func (s *InvoiceService) Create(ctx context.Context, in NewInvoice) (model.InvoiceDetail, error) {
	inv := s.build(in)
	if err := s.store.Create(ctx, &inv); err != nil {
		return model.InvoiceDetail{}, fmt.Errorf("create invoice: %w", err)
	}
	detail, err := s.store.GetDetail(ctx, inv.ID)
	if err != nil {
		return model.InvoiceDetail{}, fmt.Errorf("load invoice %d: %w", inv.ID, err)
	}
	s.derive(ctx, "create", detail.ID, func(ctx context.Context) (Derivation, error) {
		return s.deriver.OnInvoiceCreated(ctx, detail)
	})
	return detail, nil
}

func (s *InvoiceService) build(in NewInvoice) model.Invoice {
	today := s.today()
	inv := model.Invoice{
		CustomerName:   in.CustomerName,
		ReservationIDs: in.ReservationIDs,
		Fee:            s.defaults.Fee,
		PaymentMethod:  in.PaymentMethod,
		IssuedDate:     today,
		PaymentDate:    in.PaymentDate,
		Status:         in.Status,
	}
	if in.Fee != nil {
		inv.Fee = *in.Fee
	}
	if in.IssuedDate != nil {
		inv.IssuedDate = *in.IssuedDate
	}
	inv.DueDate = inv.IssuedDate.AddDate(0, 0, s.defaults.DueDays)
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}
	if inv.Status == "" {
		inv.Status = model.InvoiceUnpaid
	}
	if inv.Status == model.InvoicePaid && inv.PaymentDate == nil {
		t := s.now().UTC()
		inv.PaymentDate = &t
	}
	return inv
}

// today is the current calendar date in the configured zone, expressed as
// midnight UTC so it round-trips through a DATE column.
func (s *InvoiceService) today() time.Time {
	y, m, d := s.now().In(s.defaults.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Update applies patch and, when the write settles the invoice, derives the
// Income report and the payment activity entry attributed to actor.
func (s *InvoiceService) Update(ctx context.Context, id uint64, patch model.InvoicePatch, actor string) (model.InvoiceDetail, error) {
	prior, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.InvoiceDetail{}, fmt.Errorf("update invoice %d: %w", id, err)
	}
	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return model.InvoiceDetail{}, fmt.Errorf("load invoice %d: %w", id, err)
	}
	s.derive(ctx, "update", id, func(ctx context.Context) (Derivation, error) {
		return s.deriver.OnInvoiceUpdated(ctx, prior, detail, actor)
	})
	return detail, nil
}

// derive runs fn detached from request cancellation and bounded by the
// service timeout.
func (s *InvoiceService) derive(ctx context.Context, op string, id uint64, fn func(context.Context) (Derivation, error)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if _, err := fn(ctx); err != nil {
		s.logger.Error().Err(err).Str("op", op).Uint64("invoice_id", id).Msg("settlement derivation failed")
	}
}

// Get returns one invoice with its reservations.
func (s *InvoiceService) Get(ctx context.Context, id uint64) (model.InvoiceDetail, error) {
	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return model.InvoiceDetail{}, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return detail, nil
}

// GetMany returns the invoices in the order of ids.
func (s *InvoiceService) GetMany(ctx context.Context, ids []uint64) ([]model.InvoiceDetail, error) {
	list, err := s.store.GetDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get invoices: %w", err)
	}
	return list, nil
}

// List returns one page of invoices and the total match count.
func (s *InvoiceService) List(ctx context.Context, q repository.InvoiceQuery) ([]model.InvoiceDetail, int64, error) {
	list, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return list, total, nil
}

// Delete removes the invoice with its reports and activity entries.
func (s *InvoiceService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	s.logger.Info().Uint64("invoice_id", id).Msg("invoice deleted")
	return nil
}
