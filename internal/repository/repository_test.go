package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var fixedTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

var reservationColumns = []string{
	"id", "nik", "name", "contact", "type", "ticket_id", "destination", "date",
	"transport_type", "carrier_name", "departure_airport", "departure_time",
	"arrival_airport", "arrival_time", "hotel_name", "total_persons",
	"check_in_date", "check_out_date",
	"ticket_price", "room_price", "estimated_budget", "total_price",
	"payment_method", "payment_status", "status", "admin_id",
	"invoice_id", "created_at", "updated_at",
}

// reservationValues returns one flight reservation row.  invoiceID may be
// nil for an unbilled reservation.
func reservationValues(id int64, ticket, name string, invoiceID driver.Value) []driver.Value {
	return []driver.Value{
		id, "3171000000000001", name, "+628123456789", "flight", ticket, "Bali", fixedTime,
		"Plane", "Garuda", "CGK", fixedTime,
		"DPS", fixedTime.Add(2 * time.Hour), nil, nil,
		nil, nil,
		"500000", "300000", "0", "800000",
		"Prepaid", "Pending", "Booked", nil,
		invoiceID, fixedTime, fixedTime,
	}
}

var invoiceColumns = []string{
	"id", "customer_name", "total_amount", "fee", "payment_method",
	"issued_date", "due_date", "payment_date", "status", "created_at", "updated_at",
}

func invoiceValues(id int64, status string) []driver.Value {
	return []driver.Value{
		id, "PT Maju", "800000", "10000", "Bank Transfer",
		fixedTime, fixedTime.AddDate(0, 0, 7), nil, status, fixedTime, fixedTime,
	}
}
