package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

// ReportStore reads derived reports.
type ReportStore interface {
	List(ctx context.Context, q repository.ReportQuery) ([]model.ReportDetail, error)
	GetDetail(ctx context.Context, id uint64) (model.ReportDetail, error)
}

// ActivityStore reads the activity log.
type ActivityStore interface {
	List(ctx context.Context, q repository.ActivityQuery) ([]model.ActivityLog, error)
}

// LedgerHandler serves the read-only report and activity endpoints.
type LedgerHandler struct {
	reports  ReportStore
	activity ActivityStore
}

func NewLedgerHandler(reports ReportStore, activity ActivityStore) *LedgerHandler {
	return &LedgerHandler{reports: reports, activity: activity}
}

// ListReports handles GET /api/laporan?type=Income|Expense&invoice_id=.
func (h *LedgerHandler) ListReports(c echo.Context) error {
	typ := c.QueryParam("type")
	if typ != "" && typ != string(model.ReportIncome) && typ != string(model.ReportExpense) {
		return echo.NewHTTPError(http.StatusBadRequest, "type harus salah satu dari: Income, Expense")
	}
	invoiceID, err := queryInt(c, "invoice_id")
	if err != nil {
		return err
	}
	items, err := h.reports.List(c.Request().Context(), repository.ReportQuery{Type: typ, InvoiceID: uint64(invoiceID)})
	if err != nil {
		return err
	}
	return respondList(c, items, int64(len(items)))
}

// GetReport handles GET /api/laporan/:id.
func (h *LedgerHandler) GetReport(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rep, err := h.reports.GetDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", rep)
}

// ListActivity handles GET /api/log-transaksi, newest first.
func (h *LedgerHandler) ListActivity(c echo.Context) error {
	refType := c.QueryParam("reference_type")
	if refType != "" && refType != string(model.ReferenceReservation) && refType != string(model.ReferenceInvoice) {
		return echo.NewHTTPError(http.StatusBadRequest, "reference_type harus salah satu dari: Reservation, Invoice")
	}
	refID, err := queryInt(c, "reference_id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	items, err := h.activity.List(c.Request().Context(), repository.ActivityQuery{
		ReferenceType: refType,
		ReferenceID:   uint64(refID),
		Search:        c.QueryParam("search"),
		Limit:         limit,
	})
	if err != nil {
		return err
	}
	return respondList(c, items, int64(len(items)))
}
