package delivery

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/tracker"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers delivery routes
func Register(g *echo.Group) {
	g.GET("/:id", GetDelivery)
	g.POST("/:id/status", UpdateDeliveryStatus)
	g.POST("/:id/temperature", RecordTemperature)
	g.POST("/:id/location", RecordLocation)
	g.GET("/:id/tracking", GetTrackingHistory)
}

// GetDelivery gets a delivery by ID
func GetDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	del, err := svc.GetDelivery(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, del)
}

// UpdateDeliveryStatus advances a delivery leg's status
func UpdateDeliveryStatus(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.UpdateDeliveryStatusRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	del, err := svc.UpdateStatus(ctx, tenantID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, del)
}

// RecordTemperature attaches a temperature reading to a delivery stage
func RecordTemperature(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.RecordTemperatureRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	reading, err := svc.RecordTemperature(ctx, tenantID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reading)
}

// RecordLocation ingests one GPS observation for a delivery
func RecordLocation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.RecordLocationRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	point, err := svc.RecordLocation(ctx, tenantID, c.Param("id"), req, "api")
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, point)
}

// GetTrackingHistory gets a delivery's GPS trail with aggregates
func GetTrackingHistory(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	history, err := svc.GetTrackingHistory(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, history)
}
