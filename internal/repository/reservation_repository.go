package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  All timestamp
// columns are stored in UTC; DATE columns carry calendar dates.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationSelect reads a reservation together with the invoice billing
// it, if any.  The column order matches scanReservation.
const reservationSelect = `SELECT r.id, r.nik, r.name, r.contact, r.type, r.ticket_id, r.destination, r.date,
       r.transport_type, r.carrier_name, r.departure_airport, r.departure_time,
       r.arrival_airport, r.arrival_time, r.hotel_name, r.total_persons,
       r.check_in_date, r.check_out_date,
       r.ticket_price, r.room_price, r.estimated_budget, r.total_price,
       r.payment_method, r.payment_status, r.status, r.admin_id,
       ir.invoice_id, r.created_at, r.updated_at
FROM reservations r
LEFT JOIN invoice_reservations ir ON ir.reservation_id = r.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
	var r model.Reservation
	err := s.Scan(
		&r.ID, &r.NIK, &r.Name, &r.Contact, &r.Type, &r.TicketID, &r.Destination, &r.Date,
		&r.TransportType, &r.CarrierName, &r.DepartureAirport, &r.DepartureTime,
		&r.ArrivalAirport, &r.ArrivalTime, &r.HotelName, &r.TotalPersons,
		&r.CheckInDate, &r.CheckOutDate,
		&r.TicketPrice, &r.RoomPrice, &r.EstimatedBudget, &r.TotalPrice,
		&r.PaymentMethod, &r.PaymentStatus, &r.Status, &r.AdminID,
		&r.InvoiceID, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create inserts a reservation and reads it back so timestamps and defaults
// are populated.  A duplicate ticket id yields ErrTicketExists.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	res.Recalculate()
	const q = `INSERT INTO reservations
        (nik, name, contact, type, ticket_id, destination, date,
         transport_type, carrier_name, departure_airport, departure_time,
         arrival_airport, arrival_time, hotel_name, total_persons,
         check_in_date, check_out_date,
         ticket_price, room_price, estimated_budget, total_price,
         payment_method, payment_status, status, admin_id)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	result, err := r.db.ExecContext(ctx, q,
		res.NIK, res.Name, res.Contact, res.Type, res.TicketID, res.Destination, res.Date,
		res.TransportType, res.CarrierName, res.DepartureAirport, res.DepartureTime,
		res.ArrivalAirport, res.ArrivalTime, res.HotelName, res.TotalPersons,
		res.CheckInDate, res.CheckOutDate,
		res.TicketPrice, res.RoomPrice, res.EstimatedBudget, res.TotalPrice,
		res.PaymentMethod, res.PaymentStatus, res.Status, res.AdminID,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrTicketExists
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = saved
	return nil
}

// GetByID returns a single reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

// Update overwrites every editable column of an existing reservation and
// reads the row back.  Callers load and patch the reservation first.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	res.Recalculate()
	const q = `UPDATE reservations SET
        nik = ?, name = ?, contact = ?, type = ?, ticket_id = ?, destination = ?, date = ?,
        transport_type = ?, carrier_name = ?, departure_airport = ?, departure_time = ?,
        arrival_airport = ?, arrival_time = ?, hotel_name = ?, total_persons = ?,
        check_in_date = ?, check_out_date = ?,
        ticket_price = ?, room_price = ?, estimated_budget = ?, total_price = ?,
        payment_method = ?, payment_status = ?, status = ?
        WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		res.NIK, res.Name, res.Contact, res.Type, res.TicketID, res.Destination, res.Date,
		res.TransportType, res.CarrierName, res.DepartureAirport, res.DepartureTime,
		res.ArrivalAirport, res.ArrivalTime, res.HotelName, res.TotalPersons,
		res.CheckInDate, res.CheckOutDate,
		res.TicketPrice, res.RoomPrice, res.EstimatedBudget, res.TotalPrice,
		res.PaymentMethod, res.PaymentStatus, res.Status,
		res.ID,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrTicketExists
		}
		return err
	}
	saved, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return err
	}
	*res = saved
	return nil
}

// Delete removes a reservation and its activity entries in one
// transaction.  Reservations that are still billed by an invoice are
// refused with ErrReservationBilled.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var invoiceID sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT ir.invoice_id FROM reservations r
             LEFT JOIN invoice_reservations ir ON ir.reservation_id = r.id
             WHERE r.id = ? FOR UPDATE`, id).Scan(&invoiceID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		if invoiceID.Valid {
			return ErrReservationBilled
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM activity_logs WHERE reference_type = ? AND reference_id = ?`,
			model.ReferenceReservation, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
		return err
	})
}

// Latest returns the n most recently created reservations.
func (r *ReservationRepo) Latest(ctx context.Context, n int) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, reservationSelect+` ORDER BY r.created_at DESC, r.id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// listByInvoices loads the reservations billed by the given invoices, keyed
// by invoice id and kept in invoice order.
func listByInvoices(ctx context.Context, q queryer, invoiceIDs []uint64) (map[uint64][]model.Reservation, error) {
	out := make(map[uint64][]model.Reservation, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx,
		reservationSelect+` WHERE ir.invoice_id IN (`+placeholders(len(invoiceIDs))+`) ORDER BY ir.invoice_id, ir.position`,
		uint64Args(invoiceIDs)...)
	if err != nil {
		return nil, err
	}
	list, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	for _, res := range list {
		if res.InvoiceID != nil {
			out[*res.InvoiceID] = append(out[*res.InvoiceID], res)
		}
	}
	return out, nil
}
