package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/printing"
	"github.com/iliyamo/travel-backoffice/internal/repository"
	"github.com/iliyamo/travel-backoffice/internal/service"
)

// InvoiceService is what InvoiceHandler needs from the service layer.
type InvoiceService interface {
	Create(ctx context.Context, in service.NewInvoice) (model.InvoiceDetail, error)
	Get(ctx context.Context, id uint64) (model.InvoiceDetail, error)
	GetMany(ctx context.Context, ids []uint64) ([]model.InvoiceDetail, error)
	List(ctx context.Context, q repository.InvoiceQuery) ([]model.InvoiceDetail, int64, error)
	Update(ctx context.Context, id uint64, patch model.InvoicePatch, actor string) (model.InvoiceDetail, error)
	Delete(ctx context.Context, id uint64) error
}

// Printer renders invoices to a PDF document.
type Printer interface {
	Print(ctx context.Context, invoices []model.InvoiceDetail) (printing.Document, error)
}

// InvoiceHandler serves /api/invois.
type InvoiceHandler struct {
	svc     InvoiceService
	printer Printer
	actor   string
}

// NewInvoiceHandler builds the handler.  printer may be nil, in which case
// the PDF endpoints answer 503.
func NewInvoiceHandler(svc InvoiceService, printer Printer, actor string) *InvoiceHandler {
	if svc == nil {
		panic("nil service passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{svc: svc, printer: printer, actor: actor}
}

type invoiceRequest struct {
	CustomerName   string              `json:"customer_name" validate:"required,max=100"`
	ReservationIDs []uint64            `json:"reservation_ids" validate:"required,min=1,max=100,dive,gt=0"`
	Fee            *decimal.Decimal    `json:"fee" validate:"omitempty,gte=0"`
	PaymentMethod  string              `json:"payment_method" validate:"required,oneof='Bank Transfer' 'Credit Card' Cash"`
	IssuedDate     *Date               `json:"issued_date"`
	DueDate        *Date               `json:"due_date"`
	PaymentDate    *Date               `json:"payment_date"`
	Status         model.InvoiceStatus `json:"status" validate:"omitempty,oneof=Unpaid Paid"`
}

type invoicePatchRequest struct {
	Fee           *decimal.Decimal     `json:"fee" validate:"omitempty,gte=0"`
	PaymentMethod *string              `json:"payment_method" validate:"omitempty,oneof='Bank Transfer' 'Credit Card' Cash"`
	IssuedDate    *Date                `json:"issued_date"`
	DueDate       *Date                `json:"due_date"`
	PaymentDate   *Date                `json:"payment_date"`
	Status        *model.InvoiceStatus `json:"status" validate:"omitempty,oneof=Unpaid Paid"`
}

type bulkPrintRequest struct {
	IDs []uint64 `json:"ids" validate:"required,min=1,max=100,dive,gt=0"`
}

// List handles GET /api/invois.
func (h *InvoiceHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), repository.InvoiceQuery{
		Search:   c.QueryParam("search"),
		Status:   c.QueryParam("status"),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return err
	}
	return respondList(c, items, total)
}

// Get handles GET /api/invois/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", inv)
}

// Create handles POST /api/invois.  The total is computed from the billed
// reservations; the initial report is derived after the invoice is stored.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var req invoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.Create(c.Request().Context(), service.NewInvoice{
		CustomerName:   req.CustomerName,
		ReservationIDs: req.ReservationIDs,
		Fee:            req.Fee,
		PaymentMethod:  req.PaymentMethod,
		IssuedDate:     req.IssuedDate.Ptr(),
		DueDate:        req.DueDate.Ptr(),
		PaymentDate:    req.PaymentDate.Ptr(),
		Status:         req.Status,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Invois dibuat", inv)
}

// Update handles PUT /api/invois/:id.  Settling an invoice records the
// Income report and a payment entry attributed to the caller.
func (h *InvoiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req invoicePatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch := model.InvoicePatch{
		Fee:           req.Fee,
		PaymentMethod: req.PaymentMethod,
		IssuedDate:    req.IssuedDate.Ptr(),
		DueDate:       req.DueDate.Ptr(),
		PaymentDate:   req.PaymentDate.Ptr(),
		Status:        req.Status,
	}
	inv, err := h.svc.Update(c.Request().Context(), id, patch, actorFor(c, h.actor))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Invoice diperbarui", inv)
}

// Delete handles DELETE /api/invois/:id.
func (h *InvoiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Invoice dihapus", nil)
}

// PDF handles GET /api/invois/:id/pdf.
func (h *InvoiceHandler) PDF(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.sendPDF(c, []model.InvoiceDetail{inv})
}

// BulkPDF handles POST /api/invois/pdf with {"ids": [...]}: one page per
// invoice, in request order.
func (h *InvoiceHandler) BulkPDF(c echo.Context) error {
	var req bulkPrintRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	invoices, err := h.svc.GetMany(c.Request().Context(), req.IDs)
	if err != nil {
		return err
	}
	return h.sendPDF(c, invoices)
}

func (h *InvoiceHandler) sendPDF(c echo.Context, invoices []model.InvoiceDetail) error {
	if h.printer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Layanan PDF tidak tersedia")
	}
	doc, err := h.printer.Print(c.Request().Context(), invoices)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Gagal membuat PDF").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(doc.PDF)))
	return c.Blob(http.StatusOK, "application/pdf", doc.PDF)
}
