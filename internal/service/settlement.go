// Package service holds the orchestration between repositories: the
// settlement deriver that turns invoice status changes into reports and
// activity entries, and thin services used by the HTTP handlers.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/queue"
)

// ReportStore creates a report unless one of the same type already exists
// for the invoice.
type ReportStore interface {
	CreateOnce(ctx context.Context, r *model.Report) (bool, error)
}

// ActivityStore appends activity entries.
type ActivityStore interface {
	Append(ctx context.Context, e *model.ActivityLog) error
}

// Derivation describes what a settlement pass wrote.  Report is nil when
// the invoice status calls for no report; ReportCreated is false when the
// report already existed.
type Derivation struct {
	Report        *model.Report
	ReportCreated bool
	Activity      *model.ActivityLog
}

// SettlementDeriver derives reports and activity entries from invoice
// writes.  Every report goes through ReportStore.CreateOnce, so running a
// derivation twice never duplicates a report.
type SettlementDeriver struct {
	reports  ReportStore
	activity ActivityStore
	events   EventPublisher
	logger   zerolog.Logger
}

// NewSettlementDeriver wires the deriver.  A nil publisher disables events.
func NewSettlementDeriver(reports ReportStore, activity ActivityStore, events EventPublisher, logger zerolog.Logger) *SettlementDeriver {
	if events == nil {
		events = NoopPublisher{}
	}
	return &SettlementDeriver{reports: reports, activity: activity, events: events, logger: logger}
}

// StatusReport returns the report the invoice's current status calls for:
// an Expense of the reservation total while unpaid, an Income of the grand
// total once paid.
func StatusReport(inv model.InvoiceDetail) *model.Report {
	switch inv.Status {
	case model.InvoiceUnpaid:
		return &model.Report{
			InvoiceID:   inv.ID,
			Type:        model.ReportExpense,
			Amount:      inv.TotalAmount,
			Description: "Pemesanan untuk " + inv.CustomerLabel(),
			CreatedBy:   model.SystemActor,
		}
	case model.InvoicePaid:
		return &model.Report{
			InvoiceID:   inv.ID,
			Type:        model.ReportIncome,
			Amount:      inv.GrandTotal(),
			Description: "Pembayaran dari " + inv.CustomerLabel(),
			CreatedBy:   model.SystemActor,
		}
	}
	return nil
}

// EnsureStatusReport creates the report for the invoice's current status if
// it is missing.
func (d *SettlementDeriver) EnsureStatusReport(ctx context.Context, inv model.InvoiceDetail) (Derivation, error) {
	rep := StatusReport(inv)
	if rep == nil {
		return Derivation{}, nil
	}
	created, err := d.reports.CreateOnce(ctx, rep)
	if err != nil {
		return Derivation{}, fmt.Errorf("create %s report for invoice %d: %w", rep.Type, inv.ID, err)
	}
	if created {
		d.logger.Info().Uint64("invoice_id", inv.ID).Str("type", string(rep.Type)).
			Str("amount", rep.Amount.String()).Msg("report created")
	}
	return Derivation{Report: rep, ReportCreated: created}, nil
}

// OnInvoiceCreated derives the report for a newly created invoice.
func (d *SettlementDeriver) OnInvoiceCreated(ctx context.Context, inv model.InvoiceDetail) (Derivation, error) {
	return d.EnsureStatusReport(ctx, inv)
}

// OnInvoiceUpdated reacts to an invoice write given the status it had
// before.  Only an Unpaid to Paid transition has effects: the Income report
// and one activity entry attributed to actor.
func (d *SettlementDeriver) OnInvoiceUpdated(ctx context.Context, prior model.InvoiceStatus, inv model.InvoiceDetail, actor string) (Derivation, error) {
	if !model.IsSettlement(prior, inv.Status) {
		return Derivation{}, nil
	}
	out, err := d.EnsureStatusReport(ctx, inv)
	if err != nil {
		// The activity entry does not depend on the report; record it anyway.
		d.logger.Error().Err(err).Uint64("invoice_id", inv.ID).Msg("settlement report failed")
	}

	entry := &model.ActivityLog{
		ReferenceID:   inv.ID,
		ReferenceType: model.ReferenceInvoice,
		Description:   fmt.Sprintf("Reservation ID: #%s has been paid", inv.TicketLabel()),
		Actor:         actor,
	}
	if aerr := d.activity.Append(ctx, entry); aerr != nil {
		return out, fmt.Errorf("append settlement activity for invoice %d: %w", inv.ID, aerr)
	}
	out.Activity = entry
	d.publish(ctx, *entry)
	return out, err
}

// publish forwards a stored entry to the broker.  Failures are only logged.
func (d *SettlementDeriver) publish(ctx context.Context, e model.ActivityLog) {
	if err := d.events.PublishActivity(ctx, queue.NewActivityEvent(e)); err != nil {
		d.logger.Warn().Err(err).Uint64("activity_id", e.ID).Msg("activity event not published")
	}
}
