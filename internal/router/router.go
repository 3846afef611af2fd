package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-backoffice/internal/config"
	"github.com/iliyamo/travel-backoffice/internal/handler"
	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/model"
)

// Handlers groups everything served under /api.
type Handlers struct {
	Reservations *handler.ReservationHandler
	Invoices     *handler.InvoiceHandler
	Ledger       *handler.LedgerHandler
	Dashboard    *handler.DashboardHandler
}

// Options carries the middleware settings of the protected group.
// RequestLogger may be nil.
type Options struct {
	JWTSecret     string
	RateLimit     config.RateLimitConfig
	Cache         *middleware.ResponseCache
	Redis         *redis.Client
	RequestLogger echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, mw ...echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health(db), mw...)
}

// RegisterAuth registers the session endpoints.  Register, login, refresh
// and logout live under /api/auth without a token; /api/me needs one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api/auth", mw...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)

	e.GET("/api/me", a.Me, append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, mw...)...)
}

// RegisterAPI registers the back-office endpoints.  Every route requires a
// valid JWT for one of the admin roles and is rate limited; successful
// writes purge the response cache.
func RegisterAPI(e *echo.Echo, h Handlers, opts Options) {
	// The request logger sits after JWTAuth so its lines carry the user.
	chain := []echo.MiddlewareFunc{middleware.JWTAuth(opts.JWTSecret)}
	if opts.RequestLogger != nil {
		chain = append(chain, opts.RequestLogger)
	}
	chain = append(chain,
		middleware.RequireRole(model.RoleTravelAdmin, model.RoleFinanceAdmin),
		middleware.RateLimit(opts.RateLimit, opts.Redis),
		opts.Cache.InvalidateOnWrite(),
	)
	g := e.Group("/api", chain...)

	// ---- Reservations ----
	g.GET("/reservasi", h.Reservations.List)
	g.POST("/reservasi", h.Reservations.Create)
	g.GET("/reservasi/:id", h.Reservations.Get)
	g.PUT("/reservasi/:id", h.Reservations.Update)
	g.DELETE("/reservasi/:id", h.Reservations.Delete)

	// ---- Invoices ----
	g.GET("/invois", h.Invoices.List)
	g.POST("/invois", h.Invoices.Create)
	g.POST("/invois/pdf", h.Invoices.BulkPDF)
	g.GET("/invois/:id", h.Invoices.Get)
	g.PUT("/invois/:id", h.Invoices.Update)
	g.DELETE("/invois/:id", h.Invoices.Delete)
	g.GET("/invois/:id/pdf", h.Invoices.PDF)

	// ---- Reports and activity (read only) ----
	g.GET("/laporan", h.Ledger.ListReports)
	g.GET("/laporan/:id", h.Ledger.GetReport)
	g.GET("/log-transaksi", h.Ledger.ListActivity)

	g.GET("/dashboard-stats", h.Dashboard.Stats, opts.Cache.Middleware())
}
