// Package repository holds the MySQL data access layer.  Repositories are
// plain structs over *sql.DB built by their New* constructors and passed
// explicitly to services.  The sentinel errors below let higher layers
// distinguish failure scenarios with errors.Is.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrReservationNotFound: no reservation with the given id.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrInvoiceNotFound: no invoice with the given id.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrReportNotFound: no report with the given id.
	ErrReportNotFound = errors.New("report not found")
	// ErrUserNotFound: no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrConflict is returned when a write cannot be performed because of
	// conflicting state.  Handlers translate it into HTTP 409.
	ErrConflict = errors.New("conflict")
	// ErrReservationBilled: the reservation is already attached to an
	// invoice, so it cannot be billed again or deleted.
	ErrReservationBilled = errors.New("reservation already billed")
	// ErrTicketExists: another reservation uses the same ticket id.
	ErrTicketExists = errors.New("ticket id already exists")
	// ErrEmailExists: another user uses the same email.
	ErrEmailExists = errors.New("email already exists")
)

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "1062")
}
