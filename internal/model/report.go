package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportType classifies a ledger entry.
type ReportType string

const (
	ReportIncome  ReportType = "Income"
	ReportExpense ReportType = "Expense"
)

// SystemActor is recorded as the creator of derived reports.
const SystemActor = "system"

// Report mirrors the `reports` table.  InvoiceID is a back-reference; the
// pair (InvoiceID, Type) is unique.
type Report struct {
	ID          uint64          `json:"id"`
	InvoiceID   uint64          `json:"invoice_ref"`
	Type        ReportType      `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReportInvoice summarises the invoice a report was derived from.
type ReportInvoice struct {
	ID           uint64          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Status       InvoiceStatus   `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Fee          decimal.Decimal `json:"fee"`
	TicketID     *string         `json:"ticket_id,omitempty"`
}

// ReportDetail is a report with its invoice summary.
type ReportDetail struct {
	Report
	Invoice ReportInvoice `json:"invoice"`
}
