package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/model"
)

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "ID tidak valid")
	}
	return id, nil
}

// bindAndValidate decodes the request into dst and runs the validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Format data tidak valid").SetInternal(err)
	}
	return c.Validate(dst)
}

// actorFor names the caller in activity entries: the role label when the
// token carries a known role, else fallback.
func actorFor(c echo.Context, fallback string) string {
	return model.ActorLabel(middleware.Role(c), fallback)
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" harus bernilai true atau false")
	}
	return &v, nil
}

// queryInt parses an optional integer query parameter, 0 when absent.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" harus berupa angka positif")
	}
	return v, nil
}
