package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "Unpaid"
	InvoicePaid   InvoiceStatus = "Paid"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool { return s == InvoiceUnpaid || s == InvoicePaid }

// IsSettlement reports whether moving from prior to next settles an invoice.
func IsSettlement(prior, next InvoiceStatus) bool {
	return prior == InvoiceUnpaid && next == InvoicePaid
}

// Invoice mirrors the `invoices` table.  ReservationIDs keeps the order in
// which reservations were attached; the first one is treated as the primary
// reservation when describing the invoice.
type Invoice struct {
	ID             uint64          `json:"id"`
	CustomerName   string          `json:"customer_name"`
	ReservationIDs []uint64        `json:"reservation_ids"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Fee            decimal.Decimal `json:"fee"`
	PaymentMethod  string          `json:"payment_method"`
	IssuedDate     time.Time       `json:"issued_date"`
	DueDate        time.Time       `json:"due_date"`
	PaymentDate    *time.Time      `json:"payment_date"`
	Status         InvoiceStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GrandTotal is the amount the customer is billed.
func (i Invoice) GrandTotal() decimal.Decimal { return i.TotalAmount.Add(i.Fee) }

// InvoiceDetail is an invoice together with the reservations it bills, in
// invoice order.
type InvoiceDetail struct {
	Invoice
	Reservations []Reservation   `json:"reservations"`
	Grand        decimal.Decimal `json:"grand_total"`
}

// NewInvoiceDetail composes the view and fills the grand total.
func NewInvoiceDetail(inv Invoice, reservations []Reservation) InvoiceDetail {
	if reservations == nil {
		reservations = []Reservation{}
	}
	return InvoiceDetail{Invoice: inv, Reservations: reservations, Grand: inv.GrandTotal()}
}

// Primary returns the first billed reservation.
func (d InvoiceDetail) Primary() (Reservation, bool) {
	if len(d.Reservations) == 0 {
		return Reservation{}, false
	}
	return d.Reservations[0], true
}

// CustomerLabel names the customer in generated descriptions: the primary
// reservation's name, else the invoice customer name, else "pelanggan".
func (d InvoiceDetail) CustomerLabel() string {
	if r, ok := d.Primary(); ok && r.Name != "" {
		return r.Name
	}
	if d.CustomerName != "" {
		return d.CustomerName
	}
	return "pelanggan"
}

// TicketLabel identifies the invoice in activity entries: the primary
// reservation's ticket id, falling back to the invoice id.
func (d InvoiceDetail) TicketLabel() string {
	if r, ok := d.Primary(); ok && r.TicketID != "" {
		return r.TicketID
	}
	return strconv.FormatUint(d.ID, 10)
}

// InvoicePatch carries the fields an update may change.  Customer name and
// billed reservations are fixed at creation.
type InvoicePatch struct {
	Fee           *decimal.Decimal
	PaymentMethod *string
	IssuedDate    *time.Time
	DueDate       *time.Time
	PaymentDate   *time.Time
	Status        *InvoiceStatus
}

// ApplyTo merges the patch into inv.  Settling an invoice without a payment
// date stamps it with now.
func (p InvoicePatch) ApplyTo(inv *Invoice, now time.Time) {
	prior := inv.Status
	if p.Fee != nil {
		inv.Fee = *p.Fee
	}
	if p.PaymentMethod != nil {
		inv.PaymentMethod = *p.PaymentMethod
	}
	if p.IssuedDate != nil {
		inv.IssuedDate = *p.IssuedDate
	}
	if p.DueDate != nil {
		inv.DueDate = *p.DueDate
	}
	if p.PaymentDate != nil {
		inv.PaymentDate = p.PaymentDate
	}
	if p.Status != nil {
		inv.Status = *p.Status
	}
	if IsSettlement(prior, inv.Status) && inv.PaymentDate == nil {
		t := now.UTC()
		inv.PaymentDate = &t
	}
}
