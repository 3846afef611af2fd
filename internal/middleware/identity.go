package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ContextUserID).(uint64)
	return id
}

// Role returns the authenticated user's role claim.
func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}

// identity names the caller for rate limit keys and log lines.
func identity(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
