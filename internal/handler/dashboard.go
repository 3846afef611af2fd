package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// DashboardService computes the dashboard payload.
type DashboardService interface {
	Stats(ctx context.Context) (model.DashboardStats, error)
}

type DashboardHandler struct {
	svc DashboardService
}

func NewDashboardHandler(svc DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats handles GET /api/dashboard-stats.
func (h *DashboardHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Gagal mengambil data dashboard").SetInternal(err)
	}
	return respond(c, http.StatusOK, "", stats)
}
