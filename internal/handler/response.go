package handler // HTTP handlers for the back-office API

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope status values.
const (
	StatusOK   = "berhasil"
	StatusFail = "gagal"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Total   *int64            `json:"total,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Status: StatusOK, Message: message, Data: data})
}

func respondList(c echo.Context, data any, total int64) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusOK, Data: data, Total: &total})
}

func respondError(c echo.Context, code int, message string, fields map[string]string) error {
	return c.JSON(code, Envelope{Status: StatusFail, Message: message, Errors: fields})
}
