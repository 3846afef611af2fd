package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

// ReservationService is what ReservationHandler needs from the service layer.
type ReservationService interface {
	Create(ctx context.Context, res *model.Reservation, actor string) error
	Get(ctx context.Context, id uint64) (model.Reservation, error)
	Update(ctx context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, q repository.ReservationQuery) ([]model.Reservation, int64, error)
}

// ReservationHandler serves /api/reservasi.
type ReservationHandler struct {
	svc   ReservationService
	actor string
}

// NewReservationHandler builds the handler.  actor is recorded in the
// activity log when the caller's role has no label.
func NewReservationHandler(svc ReservationService, actor string) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc, actor: actor}
}

type reservationRequest struct {
	NIK              string                  `json:"nik" validate:"required,numeric,max=17"`
	Name             string                  `json:"name" validate:"required,max=50"`
	Contact          string                  `json:"contact" validate:"required,phone_or_email"`
	Type             model.ReservationType   `json:"type" validate:"required,oneof=flight hotel activity"`
	TicketID         string                  `json:"ticket_id" validate:"required,max=64"`
	Destination      string                  `json:"destination" validate:"required,max=50"`
	Date             *Date                   `json:"date" validate:"required"`
	TransportType    *string                 `json:"transport_type" validate:"omitempty,oneof=Plane Ship Train Bus"`
	CarrierName      *string                 `json:"carrier_name" validate:"omitempty,max=100"`
	DepartureAirport *string                 `json:"departure_airport" validate:"omitempty,max=100"`
	DepartureTime    *Date                   `json:"departure_time"`
	ArrivalAirport   *string                 `json:"arrival_airport" validate:"omitempty,max=100"`
	ArrivalTime      *Date                   `json:"arrival_time"`
	HotelName        *string                 `json:"hotel_name" validate:"omitempty,max=100"`
	TotalPersons     *int                    `json:"total_persons" validate:"omitempty,gte=1"`
	CheckInDate      *Date                   `json:"check_in_date"`
	CheckOutDate     *Date                   `json:"check_out_date"`
	TicketPrice      *decimal.Decimal        `json:"ticket_price" validate:"omitempty,gte=0"`
	RoomPrice        *decimal.Decimal        `json:"room_price" validate:"omitempty,gte=0"`
	EstimatedBudget  *decimal.Decimal        `json:"estimated_budget" validate:"omitempty,gte=0"`
	PaymentMethod    string                  `json:"payment_method" validate:"required,oneof=Prepaid Postpaid"`
	PaymentStatus    model.PaymentStatus     `json:"payment_status" validate:"omitempty,oneof=Pending Paid"`
	Status           model.ReservationStatus `json:"status" validate:"omitempty,oneof=Booked Completed Canceled"`
}

func (r reservationRequest) toModel() model.Reservation {
	res := model.Reservation{
		NIK:              r.NIK,
		Name:             r.Name,
		Contact:          r.Contact,
		Type:             r.Type,
		TicketID:         r.TicketID,
		Destination:      r.Destination,
		Date:             r.Date.Time,
		TransportType:    r.TransportType,
		CarrierName:      r.CarrierName,
		DepartureAirport: r.DepartureAirport,
		DepartureTime:    r.DepartureTime.Ptr(),
		ArrivalAirport:   r.ArrivalAirport,
		ArrivalTime:      r.ArrivalTime.Ptr(),
		HotelName:        r.HotelName,
		TotalPersons:     r.TotalPersons,
		CheckInDate:      r.CheckInDate.Ptr(),
		CheckOutDate:     r.CheckOutDate.Ptr(),
		PaymentMethod:    r.PaymentMethod,
		PaymentStatus:    r.PaymentStatus,
		Status:           r.Status,
	}
	res.TicketPrice = decimalOrZero(r.TicketPrice)
	res.RoomPrice = decimalOrZero(r.RoomPrice)
	res.EstimatedBudget = decimalOrZero(r.EstimatedBudget)
	if res.PaymentStatus == "" {
		res.PaymentStatus = model.PaymentPending
	}
	if res.Status == "" {
		res.Status = model.ReservationBooked
	}
	res.Recalculate()
	return res
}

// reservationPatchRequest mirrors reservationRequest with every field
// optional.
type reservationPatchRequest struct {
	NIK              *string                  `json:"nik" validate:"omitempty,numeric,max=17"`
	Name             *string                  `json:"name" validate:"omitempty,min=1,max=50"`
	Contact          *string                  `json:"contact" validate:"omitempty,phone_or_email"`
	Type             *model.ReservationType   `json:"type" validate:"omitempty,oneof=flight hotel activity"`
	TicketID         *string                  `json:"ticket_id" validate:"omitempty,min=1,max=64"`
	Destination      *string                  `json:"destination" validate:"omitempty,min=1,max=50"`
	Date             *Date                    `json:"date"`
	TransportType    *string                  `json:"transport_type" validate:"omitempty,oneof=Plane Ship Train Bus"`
	CarrierName      *string                  `json:"carrier_name" validate:"omitempty,max=100"`
	DepartureAirport *string                  `json:"departure_airport" validate:"omitempty,max=100"`
	DepartureTime    *Date                    `json:"departure_time"`
	ArrivalAirport   *string                  `json:"arrival_airport" validate:"omitempty,max=100"`
	ArrivalTime      *Date                    `json:"arrival_time"`
	HotelName        *string                  `json:"hotel_name" validate:"omitempty,max=100"`
	TotalPersons     *int                     `json:"total_persons" validate:"omitempty,gte=1"`
	CheckInDate      *Date                    `json:"check_in_date"`
	CheckOutDate     *Date                    `json:"check_out_date"`
	TicketPrice      *decimal.Decimal         `json:"ticket_price" validate:"omitempty,gte=0"`
	RoomPrice        *decimal.Decimal         `json:"room_price" validate:"omitempty,gte=0"`
	EstimatedBudget  *decimal.Decimal         `json:"estimated_budget" validate:"omitempty,gte=0"`
	PaymentMethod    *string                  `json:"payment_method" validate:"omitempty,oneof=Prepaid Postpaid"`
	PaymentStatus    *model.PaymentStatus     `json:"payment_status" validate:"omitempty,oneof=Pending Paid"`
	Status           *model.ReservationStatus `json:"status" validate:"omitempty,oneof=Booked Completed Canceled"`
}

func (r reservationPatchRequest) toPatch() model.ReservationPatch {
	return model.ReservationPatch{
		NIK:              r.NIK,
		Name:             r.Name,
		Contact:          r.Contact,
		Type:             r.Type,
		TicketID:         r.TicketID,
		Destination:      r.Destination,
		Date:             r.Date.Ptr(),
		TransportType:    r.TransportType,
		CarrierName:      r.CarrierName,
		DepartureAirport: r.DepartureAirport,
		DepartureTime:    r.DepartureTime.Ptr(),
		ArrivalAirport:   r.ArrivalAirport,
		ArrivalTime:      r.ArrivalTime.Ptr(),
		HotelName:        r.HotelName,
		TotalPersons:     r.TotalPersons,
		CheckInDate:      r.CheckInDate.Ptr(),
		CheckOutDate:     r.CheckOutDate.Ptr(),
		TicketPrice:      r.TicketPrice,
		RoomPrice:        r.RoomPrice,
		EstimatedBudget:  r.EstimatedBudget,
		PaymentMethod:    r.PaymentMethod,
		PaymentStatus:    r.PaymentStatus,
		Status:           r.Status,
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// List handles GET /api/reservasi.
func (h *ReservationHandler) List(c echo.Context) error {
	invoiced, err := queryBool(c, "invoiced")
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	items, total, err := h.svc.Search(c.Request().Context(), repository.ReservationQuery{
		Search:        c.QueryParam("search"),
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		Type:          c.QueryParam("type"),
		TransportType: c.QueryParam("transport_type"),
		Invoiced:      invoiced,
		Page:          page,
		PageSize:      limit,
	})
	if err != nil {
		return err
	}
	return respondList(c, items, total)
}

// Get handles GET /api/reservasi/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", res)
}

// Create handles POST /api/reservasi.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res := req.toModel()
	if uid := middleware.UserID(c); uid != 0 {
		res.AdminID = &uid
	}
	if err := h.svc.Create(c.Request().Context(), &res, actorFor(c, h.actor)); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Berhasil menambahkan reservasi", res)
}

// Update handles PUT /api/reservasi/:id.  Only the fields present in the
// body change; the total price is recomputed.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req reservationPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Update(c.Request().Context(), id, req.toPatch())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Reservasi diperbarui", res)
}

// Delete handles DELETE /api/reservasi/:id.  Billed reservations are
// refused with 409.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Reservasi dihapus", nil)
}
