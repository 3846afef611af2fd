package model

import "time"

// ReferenceType names the entity an activity entry points at.
type ReferenceType string

const (
	ReferenceReservation ReferenceType = "Reservation"
	ReferenceInvoice     ReferenceType = "Invoice"
)

// ActivityLog mirrors the append-only `activity_logs` table.
type ActivityLog struct {
	ID            uint64        `json:"id"`
	ReferenceID   uint64        `json:"reference_id"`
	ReferenceType ReferenceType `json:"reference_type"`
	Date          time.Time     `json:"date"`
	Description   string        `json:"description"`
	Actor         string        `json:"actor"`
}
