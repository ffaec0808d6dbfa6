package issue

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/issues"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers issue routes
func Register(g *echo.Group) {
	g.GET("/:id", GetIssue)
	g.POST("/:id/resolve", ResolveIssue)
}

// GetIssue gets an issue by ID
func GetIssue(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*issues.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	issue, err := svc.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, issue)
}

// ResolveIssue closes an issue; resolution is one-way
func ResolveIssue(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	resolvedBy := context.GetUserID(ctx)

	req, err := utils.BindRequest[models.ResolveIssueRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*issues.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resolved, err := svc.Resolve(ctx, tenantID, c.Param("id"), resolvedBy, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resolved)
}
