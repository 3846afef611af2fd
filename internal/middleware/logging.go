package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/ziflex/lecho/v3"
)

// RequestLogger logs one line per request.  The enricher runs before the
// handler, so user_id is only present when the logger is mounted after
// JWTAuth.
func RequestLogger(logger *lecho.Logger) echo.MiddlewareFunc {
	return lecho.Middleware(lecho.Config{
		Logger:      logger,
		HandleError: true,
		Enricher: func(c echo.Context, logger zerolog.Context) zerolog.Context {
			logger = logger.Str("remote_ip", c.RealIP())
			if id := UserID(c); id != 0 {
				logger = logger.Uint64("user_id", id).Str("role", Role(c))
			}
			return logger
		},
	})
}
