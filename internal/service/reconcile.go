package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ReconcileStore finds invoices whose status report is missing.
type ReconcileStore interface {
	MissingReports(ctx context.Context) ([]uint64, error)
	GetDetail(ctx context.Context, id uint64) (model.InvoiceDetail, error)
}

// ReconcileResult summarises one pass.
type ReconcileResult struct {
	Checked int `json:"checked"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// Reconciler repairs invoices whose derivation was lost, for instance when
// the process stopped between the invoice write and the report insert.
type Reconciler struct {
	store   ReconcileStore
	deriver *SettlementDeriver
	logger  zerolog.Logger

	// AfterRepair, when set, runs once after a pass that created reports,
	// e.g. to purge cached dashboard responses.  Its error is only logged.
	AfterRepair func(ctx context.Context) error
}

func NewReconciler(store ReconcileStore, deriver *SettlementDeriver, logger zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, deriver: deriver, logger: logger}
}

// Run derives the missing status report of every affected invoice.  One
// failing invoice does not stop the pass; all failures are returned joined.
func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	ids, err := r.store.MissingReports(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("find invoices without reports: %w", err)
	}
	var (
		res  ReconcileResult
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Checked++
		detail, err := r.store.GetDetail(ctx, id)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("load invoice %d: %w", id, err))
			continue
		}
		d, err := r.deriver.EnsureStatusReport(ctx, detail)
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		if d.ReportCreated {
			res.Created++
		}
	}
	if res.Created > 0 && r.AfterRepair != nil {
		if err := r.AfterRepair(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("reconcile: after repair hook failed")
		}
	}
	r.logger.Info().Int("checked", res.Checked).Int("created", res.Created).Int("failed", res.Failed).Msg("reconcile finished")
	return res, errors.Join(errs...)
}
