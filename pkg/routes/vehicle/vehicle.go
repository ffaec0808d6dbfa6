package vehicle

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/assignment"
	"github.com/Ramsey-B/fern/pkg/context"
)

// Register registers vehicle routes
func Register(g *echo.Group) {
	g.GET("", ListVehicles)
}

// ListVehicles lists the tenant's vehicle registry
func ListVehicles(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	activeOnly := c.QueryParam("active") == "true"

	ctx, svc, err := ectoinject.GetContext[*assignment.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	vehicles, err := svc.ListVehicles(ctx, tenantID, activeOnly)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, vehicles)
}
