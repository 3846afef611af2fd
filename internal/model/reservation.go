package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationType distinguishes the kind of booking.
type ReservationType string

const (
	ReservationFlight   ReservationType = "flight"
	ReservationHotel    ReservationType = "hotel"
	ReservationActivity ReservationType = "activity"
)

// ReservationStatus is the lifecycle state of a booking.
type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "Booked"
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCanceled  ReservationStatus = "Canceled"
)

// PaymentStatus tracks whether the customer paid the reservation itself.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Reservation mirrors the `reservations` table.  Transport fields are only
// set for flights and other travel, hotel fields only for stays; both are
// nullable columns and therefore pointers here.
//
// TotalPrice is always TicketPrice + RoomPrice and is recomputed on every
// write.  InvoiceID is read from invoice_reservations and is nil while the
// reservation has not been billed.
type Reservation struct {
	ID               uint64            `json:"id"`
	NIK              string            `json:"nik"`
	Name             string            `json:"name"`
	Contact          string            `json:"contact"`
	Type             ReservationType   `json:"type"`
	TicketID         string            `json:"ticket_id"`
	Destination      string            `json:"destination"`
	Date             time.Time         `json:"date"`
	TransportType    *string           `json:"transport_type,omitempty"`
	CarrierName      *string           `json:"carrier_name,omitempty"`
	DepartureAirport *string           `json:"departure_airport,omitempty"`
	DepartureTime    *time.Time        `json:"departure_time,omitempty"`
	ArrivalAirport   *string           `json:"arrival_airport,omitempty"`
	ArrivalTime      *time.Time        `json:"arrival_time,omitempty"`
	HotelName        *string           `json:"hotel_name,omitempty"`
	TotalPersons     *int              `json:"total_persons,omitempty"`
	CheckInDate      *time.Time        `json:"check_in_date,omitempty"`
	CheckOutDate     *time.Time        `json:"check_out_date,omitempty"`
	TicketPrice      decimal.Decimal   `json:"ticket_price"`
	RoomPrice        decimal.Decimal   `json:"room_price"`
	EstimatedBudget  decimal.Decimal   `json:"estimated_budget"`
	TotalPrice       decimal.Decimal   `json:"total_price"`
	PaymentMethod    string            `json:"payment_method"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	Status           ReservationStatus `json:"status"`
	AdminID          *uint64           `json:"admin_id,omitempty"`
	InvoiceID        *uint64           `json:"invoice_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Recalculate refreshes derived fields.
func (r *Reservation) Recalculate() {
	r.TotalPrice = r.TicketPrice.Add(r.RoomPrice)
}

// Billed reports whether an invoice already covers this reservation.
func (r Reservation) Billed() bool { return r.InvoiceID != nil }

// ReservationPatch carries a partial update.  Nil fields are left unchanged.
type ReservationPatch struct {
	NIK              *string
	Name             *string
	Contact          *string
	Type             *ReservationType
	TicketID         *string
	Destination      *string
	Date             *time.Time
	TransportType    *string
	CarrierName      *string
	DepartureAirport *string
	DepartureTime    *time.Time
	ArrivalAirport   *string
	ArrivalTime      *time.Time
	HotelName        *string
	TotalPersons     *int
	CheckInDate      *time.Time
	CheckOutDate     *time.Time
	TicketPrice      *decimal.Decimal
	RoomPrice        *decimal.Decimal
	EstimatedBudget  *decimal.Decimal
	PaymentMethod    *string
	PaymentStatus    *PaymentStatus
	Status           *ReservationStatus
}

// ApplyTo merges the patch into r and recomputes the total price.
func (p ReservationPatch) ApplyTo(r *Reservation) {
	setString(&r.NIK, p.NIK)
	setString(&r.Name, p.Name)
	setString(&r.Contact, p.Contact)
	if p.Type != nil {
		r.Type = *p.Type
	}
	setString(&r.TicketID, p.TicketID)
	setString(&r.Destination, p.Destination)
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.TransportType != nil {
		r.TransportType = p.TransportType
	}
	if p.CarrierName != nil {
		r.CarrierName = p.CarrierName
	}
	if p.DepartureAirport != nil {
		r.DepartureAirport = p.DepartureAirport
	}
	if p.DepartureTime != nil {
		r.DepartureTime = p.DepartureTime
	}
	if p.ArrivalAirport != nil {
		r.ArrivalAirport = p.ArrivalAirport
	}
	if p.ArrivalTime != nil {
		r.ArrivalTime = p.ArrivalTime
	}
	if p.HotelName != nil {
		r.HotelName = p.HotelName
	}
	if p.TotalPersons != nil {
		r.TotalPersons = p.TotalPersons
	}
	if p.CheckInDate != nil {
		r.CheckInDate = p.CheckInDate
	}
	if p.CheckOutDate != nil {
		r.CheckOutDate = p.CheckOutDate
	}
	if p.TicketPrice != nil {
		r.TicketPrice = *p.TicketPrice
	}
	if p.RoomPrice != nil {
		r.RoomPrice = *p.RoomPrice
	}
	if p.EstimatedBudget != nil {
		r.EstimatedBudget = *p.EstimatedBudget
	}
	setString(&r.PaymentMethod, p.PaymentMethod)
	if p.PaymentStatus != nil {
		r.PaymentStatus = *p.PaymentStatus
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	r.Recalculate()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
