package assignment

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	assignmentrepo "github.com/Ramsey-B/fern/internal/repositories/assignment"
	"github.com/Ramsey-B/fern/internal/repositories/audit"
	"github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/internal/repositories/vehicle"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service resolves vehicle assignments: one vehicle may serve at most one
// live schedule per distribution date and wave.
type Service struct {
	assignmentRepo *assignmentrepo.Repository
	scheduleRepo   *schedule.Repository
	vehicleRepo    *vehicle.Repository
	auditRepo      *audit.Repository
	logger         ectologger.Logger
}

// NewService creates a new assignment service
func NewService(
	assignmentRepo *assignmentrepo.Repository,
	scheduleRepo *schedule.Repository,
	vehicleRepo *vehicle.Repository,
	auditRepo *audit.Repository,
	logger ectologger.Logger,
) *Service {
	return &Service{
		assignmentRepo: assignmentRepo,
		scheduleRepo:   scheduleRepo,
		vehicleRepo:    vehicleRepo,
		auditRepo:      auditRepo,
		logger:         logger,
	}
}

// Assign books a vehicle onto a schedule. The vehicle must exist and be
// active, the schedule must still be editable, and the vehicle must not be
// booked on another live schedule for the same date and wave.
func (s *Service) Assign(ctx context.Context, tenantID string, scheduleID string, req models.CreateAssignmentRequest, actor string) (*models.VehicleAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Service.Assign")
	defer span.End()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.IsEditable() {
		return nil, faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s; vehicles can no longer be assigned", scheduleID, sched.Status))
	}

	veh, err := s.vehicleRepo.Get(ctx, tenantID, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !veh.IsActive {
		return nil, faults.InactiveVehicle(req.VehicleID)
	}

	assignment := &models.VehicleAssignment{
		TenantID:         tenantID,
		ScheduleID:       scheduleID,
		VehicleID:        req.VehicleID,
		DriverID:         req.DriverID,
		Helpers:          req.Helpers,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		StartLocation:    req.StartLocation,
		EndLocation:      req.EndLocation,
		Notes:            req.Notes,
		DistributionDate: sched.DistributionDate,
		Wave:             sched.Wave,
	}

	created, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		switch faults.Code(err) {
		case faults.CodeVehicleConflict, faults.CodeDuplicateAssignment:
			metrics.AssignmentConflictsTotal.WithLabelValues(tenantID, faults.Code(err)).Inc()
		}
		return nil, err
	}

	entry := &models.ScheduleAudit{
		TenantID:   tenantID,
		ScheduleID: scheduleID,
		Action:     models.AuditActionVehicleAssigned,
		Actor:      actor,
	}
	reason := fmt.Sprintf("vehicle %s assigned", req.VehicleID)
	entry.Reason = &reason
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record assignment audit entry")
	}

	return created, nil
}

// Unassign removes a vehicle from a schedule. Reassignment is a fresh
// Assign call so the conflict scan runs again.
func (s *Service) Unassign(ctx context.Context, tenantID string, scheduleID string, assignmentID string, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "assignment.Service.Unassign")
	defer span.End()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return err
	}
	if !sched.IsEditable() {
		return faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s; vehicles can no longer be unassigned", scheduleID, sched.Status))
	}

	assignment, err := s.assignmentRepo.Get(ctx, tenantID, assignmentID)
	if err != nil {
		return err
	}
	if assignment.ScheduleID != scheduleID {
		return faults.NotFound("assignment", assignmentID)
	}

	if err := s.assignmentRepo.Delete(ctx, tenantID, assignmentID); err != nil {
		return err
	}

	entry := &models.ScheduleAudit{
		TenantID:   tenantID,
		ScheduleID: scheduleID,
		Action:     models.AuditActionVehicleUnassigned,
		Actor:      actor,
	}
	reason := fmt.Sprintf("vehicle %s unassigned", assignment.VehicleID)
	entry.Reason = &reason
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record unassignment audit entry")
	}

	return nil
}

// List retrieves a schedule's assignments
func (s *Service) List(ctx context.Context, tenantID string, scheduleID string) ([]models.VehicleAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Service.List")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListBySchedule(ctx, tenantID, scheduleID)
}

// ListVehicles retrieves the tenant's vehicle registry
func (s *Service) ListVehicles(ctx context.Context, tenantID string, activeOnly bool) ([]models.Vehicle, error) {
	return s.vehicleRepo.List(ctx, tenantID, activeOnly)
}
