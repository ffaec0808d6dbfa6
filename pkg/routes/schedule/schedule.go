package schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	assignmentsvc "github.com/Ramsey-B/fern/internal/services/assignment"
	issuesvc "github.com/Ramsey-B/fern/internal/services/issues"
	"github.com/Ramsey-B/fern/internal/services/scheduler"
	statssvc "github.com/Ramsey-B/fern/internal/services/stats"
	"github.com/Ramsey-B/fern/internal/services/tracker"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers schedule routes
func Register(g *echo.Group) {
	g.GET("/statistics", GetStatistics)
	g.GET("", ListSchedules)
	g.POST("", CreateSchedule)
	g.GET("/:id", GetSchedule)
	g.PUT("/:id", UpdateSchedule)
	g.DELETE("/:id", DeleteSchedule)
	g.POST("/:id/transition", TransitionSchedule)
	g.GET("/:id/audit", GetScheduleAudit)

	g.GET("/:id/assignments", ListAssignments)
	g.POST("/:id/assignments", CreateAssignment)
	g.DELETE("/:id/assignments/:assignmentId", DeleteAssignment)

	g.GET("/:id/deliveries", ListDeliveries)
	g.POST("/:id/deliveries", CreateDelivery)

	g.GET("/:id/issues", ListIssues)
	g.POST("/:id/issues", ReportIssue)
	g.GET("/:id/issues/summary", GetIssueSummary)
}

// CreateSchedule creates a schedule in PLANNED status
func CreateSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.CreateScheduleRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sched, err := svc.Create(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sched)
}

// GetSchedule gets a schedule by ID
func GetSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sched, err := svc.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sched)
}

// ListSchedules lists schedules with optional status, wave, and date filters
func ListSchedules(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	filter := models.ScheduleFilter{}
	if v := c.QueryParam("status"); v != "" {
		status := models.ScheduleStatus(v)
		if !status.IsValid() {
			return httperror.NewHTTPError(http.StatusBadRequest, "unknown status filter")
		}
		filter.Status = &status
	}
	if v := c.QueryParam("wave"); v != "" {
		wave, err := strconv.Atoi(v)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "wave must be an integer")
		}
		filter.Wave = &wave
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "date_from must be RFC3339")
		}
		filter.DateFrom = &t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "date_to must be RFC3339")
		}
		filter.DateTo = &t
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.List(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// UpdateSchedule edits planning fields on an editable schedule
func UpdateSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.UpdateScheduleRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sched, err := svc.Update(ctx, tenantID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sched)
}

// DeleteSchedule soft deletes a schedule that has not started
func DeleteSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.Delete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// TransitionSchedule advances a schedule through its lifecycle
func TransitionSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	actor := context.GetUserID(ctx)

	req, err := utils.BindRequest[models.TransitionRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.Transition(ctx, tenantID, c.Param("id"), req, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetScheduleAudit gets a schedule's audit trail
func GetScheduleAudit(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*scheduler.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entries, err := svc.GetAudit(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// GetStatistics gets the schedule dashboard aggregate
func GetStatistics(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*statssvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.ScheduleStatistics(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// ListAssignments lists a schedule's vehicle assignments
func ListAssignments(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*assignmentsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	assignments, err := svc.List(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, assignments)
}

// CreateAssignment books a vehicle onto a schedule
func CreateAssignment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	actor := context.GetUserID(ctx)

	req, err := utils.BindRequest[models.CreateAssignmentRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*assignmentsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	assignment, err := svc.Assign(ctx, tenantID, c.Param("id"), req, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, assignment)
}

// DeleteAssignment removes a vehicle from a schedule
func DeleteAssignment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	actor := context.GetUserID(ctx)

	ctx, svc, err := ectoinject.GetContext[*assignmentsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.Unassign(ctx, tenantID, c.Param("id"), c.Param("assignmentId"), actor); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ListDeliveries lists a schedule's delivery legs
func ListDeliveries(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	deliveries, err := svc.ListDeliveries(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deliveries)
}

// CreateDelivery adds a delivery leg to a schedule
func CreateDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.CreateDeliveryRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*tracker.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	del, err := svc.CreateDelivery(ctx, tenantID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, del)
}

// ListIssues lists a schedule's issues
func ListIssues(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*issuesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	issues, err := svc.ListBySchedule(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, issues)
}

// ReportIssue records an incident against a schedule
func ReportIssue(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)
	reportedBy := context.GetUserID(ctx)

	req, err := utils.BindRequest[models.ReportIssueRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*issuesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	issue, err := svc.Report(ctx, tenantID, c.Param("id"), reportedBy, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, issue)
}

// GetIssueSummary aggregates a schedule's issues
func GetIssueSummary(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*issuesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summary, err := svc.Summary(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
