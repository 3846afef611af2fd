package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-backoffice/internal/printing"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

const msgServerError = "Terjadi kesalahan pada server"

// domainErrors maps sentinel errors to the status and message clients see.
var domainErrors = []struct {
	err     error
	code    int
	message string
}{
	{repository.ErrReservationNotFound, http.StatusNotFound, "Reservasi tidak ditemukan"},
	{repository.ErrInvoiceNotFound, http.StatusNotFound, "Invoice tidak ditemukan"},
	{repository.ErrReportNotFound, http.StatusNotFound, "Laporan tidak ditemukan"},
	{repository.ErrUserNotFound, http.StatusNotFound, "Pengguna tidak ditemukan"},
	{repository.ErrReservationBilled, http.StatusConflict, "Reservasi sudah masuk ke invoice lain"},
	{repository.ErrTicketExists, http.StatusConflict, "Ticket ID sudah digunakan"},
	{repository.ErrEmailExists, http.StatusConflict, "Email sudah terdaftar"},
	{repository.ErrConflict, http.StatusConflict, "Data bentrok dengan data lain"},
	{repository.ErrNoReservations, http.StatusBadRequest, "Invoice harus memiliki minimal satu reservasi"},
	{printing.ErrNoInvoices, http.StatusBadRequest, "Tidak ada invoice untuk dicetak"},
}

// statusOf resolves the HTTP status and public message for err.
func statusOf(err error) (int, string, map[string]string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, "Validasi gagal", verr.Fields
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.code, d.message, nil
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError && msg == http.StatusText(he.Code) {
			msg = msgServerError
		}
		return he.Code, msg, nil
	}
	return http.StatusInternalServerError, msgServerError, nil
}

// HTTPErrorHandler renders errors in the response envelope.  Server errors
// are logged and, when Sentry is configured, reported with the caller's
// identity; their details never reach the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, message, fields := statusOf(err)
	if code >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		if hub := sentryecho.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetExtra("user_id", c.Get("user_id"))
				scope.SetExtra("role", c.Get("role"))
				hub.CaptureException(err)
			})
		}
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = respondError(c, code, message, fields)
	}
	if werr != nil {
		c.Logger().Error(werr)
	}
}
