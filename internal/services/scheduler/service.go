package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/assignment"
	"github.com/Ramsey-B/fern/internal/repositories/audit"
	"github.com/Ramsey-B/fern/internal/repositories/delivery"
	"github.com/Ramsey-B/fern/internal/repositories/issue"
	"github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/lifecycle"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service owns the schedule lifecycle: creation, planning edits, and the
// gated status transitions. All state changes are optimistic; a lost race
// surfaces as CONCURRENT_MODIFICATION rather than a blind overwrite.
type Service struct {
	scheduleRepo   *schedule.Repository
	assignmentRepo *assignment.Repository
	deliveryRepo   *delivery.Repository
	issueRepo      *issue.Repository
	auditRepo      *audit.Repository
	producer       *kafka.Producer
	statsCache     *redis.StatsCache
	logger         ectologger.Logger
}

// NewService creates a new scheduler service
func NewService(
	scheduleRepo *schedule.Repository,
	assignmentRepo *assignment.Repository,
	deliveryRepo *delivery.Repository,
	issueRepo *issue.Repository,
	auditRepo *audit.Repository,
	producer *kafka.Producer,
	statsCache *redis.StatsCache,
	logger ectologger.Logger,
) *Service {
	return &Service{
		scheduleRepo:   scheduleRepo,
		assignmentRepo: assignmentRepo,
		deliveryRepo:   deliveryRepo,
		issueRepo:      issueRepo,
		auditRepo:      auditRepo,
		producer:       producer,
		statsCache:     statsCache,
		logger:         logger,
	}
}

// Create creates a schedule in PLANNED status
func (s *Service) Create(ctx context.Context, tenantID string, req models.CreateScheduleRequest) (*models.Schedule, error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Service.Create")
	defer span.End()

	wave := req.Wave
	if wave == 0 {
		wave = 1
	}

	sched := &models.Schedule{
		TenantID:               tenantID,
		BatchRef:               req.BatchRef,
		DistributionDate:       req.DistributionDate.UTC(),
		Wave:                   wave,
		EstimatedBeneficiaries: req.EstimatedBeneficiaries,
		PackagingCost:          req.PackagingCost,
		FuelCost:               req.FuelCost,
	}

	created, err := s.scheduleRepo.Create(ctx, sched)
	if err != nil {
		return nil, err
	}

	s.statsCache.Invalidate(ctx, tenantID)
	return created, nil
}

// Get retrieves a schedule by ID
func (s *Service) Get(ctx context.Context, tenantID string, id string) (*models.Schedule, error) {
	return s.scheduleRepo.Get(ctx, tenantID, id)
}

// List retrieves schedules matching the filter
func (s *Service) List(ctx context.Context, tenantID string, filter models.ScheduleFilter, page, pageSize int) (*models.ScheduleListResponse, error) {
	return s.scheduleRepo.List(ctx, tenantID, filter, page, pageSize)
}

// Update edits planning fields. Rejected once the schedule has started; a
// date or wave change is pushed down to the copies on the assignments so the
// conflict scan stays consistent.
func (s *Service) Update(ctx context.Context, tenantID string, id string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Service.Update")
	defer span.End()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !sched.IsEditable() {
		return nil, faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s and can no longer be edited", id, sched.Status))
	}

	bookingChanged := false
	if req.BatchRef != nil {
		sched.BatchRef = *req.BatchRef
	}
	if req.DistributionDate != nil {
		sched.DistributionDate = req.DistributionDate.UTC()
		bookingChanged = true
	}
	if req.Wave != nil {
		sched.Wave = *req.Wave
		bookingChanged = true
	}
	if req.EstimatedBeneficiaries != nil {
		sched.EstimatedBeneficiaries = *req.EstimatedBeneficiaries
	}
	if req.PackagingCost != nil {
		sched.PackagingCost = *req.PackagingCost
	}
	if req.FuelCost != nil {
		sched.FuelCost = *req.FuelCost
	}

	updated, err := s.scheduleRepo.Update(ctx, sched)
	if err != nil {
		return nil, err
	}

	if bookingChanged {
		if err := s.assignmentRepo.SyncScheduleFields(ctx, tenantID, id, updated.DistributionDate, updated.Wave); err != nil {
			return nil, err
		}
	}

	s.statsCache.Invalidate(ctx, tenantID)
	return updated, nil
}

// Delete soft deletes a schedule. Once execution has started the schedule is
// part of the operational record and must be cancelled instead.
func (s *Service) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Service.Delete")
	defer span.End()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !sched.IsEditable() {
		return faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s and cannot be deleted; cancel it instead", id, sched.Status))
	}

	total, _, err := s.deliveryRepo.Counts(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if total > 0 {
		return faults.ImmutableRecord(fmt.Sprintf("schedule %s has %d deliveries and cannot be deleted; cancel it instead", id, total))
	}

	if err := s.scheduleRepo.SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}

	s.statsCache.Invalidate(ctx, tenantID)
	return nil
}

// Transition advances a schedule through its lifecycle. The transition table
// decides legality, the gates decide readiness, and a compare-and-set on the
// current status decides the race. Unresolved critical issues never block a
// transition; they come back as warnings.
func (s *Service) Transition(ctx context.Context, tenantID string, id string, req models.TransitionRequest, actor string) (*models.TransitionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Service.Transition")
	defer span.End()

	start := time.Now()
	target := req.TargetStatus

	outcome := "rejected"
	defer func() {
		metrics.ScheduleTransitionsTotal.WithLabelValues(tenantID, string(target), outcome).Inc()
		metrics.TransitionDuration.WithLabelValues(string(target)).Observe(time.Since(start).Seconds())
	}()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if !target.IsValid() || !lifecycle.CanTransitionSchedule(sched.Status, target) {
		allowed := lifecycle.AllowedScheduleTargets(sched.Status)
		targets := make([]string, len(allowed))
		for i, t := range allowed {
			targets[i] = string(t)
		}
		return nil, faults.InvalidTransition(string(sched.Status), string(target), targets)
	}

	inputs, err := s.gateInputs(ctx, tenantID, id, sched, req.Reason)
	if err != nil {
		return nil, err
	}
	if violations := lifecycle.EvaluateGates(target, inputs); len(violations) > 0 {
		return nil, faults.GateViolations(string(target), violations)
	}

	now := time.Now().UTC()
	update := schedule.StatusUpdate{}
	switch target {
	case models.ScheduleStatusInProgress:
		update.StartedAt = &now
	case models.ScheduleStatusCompleted:
		update.CompletedAt = &now
	case models.ScheduleStatusCancelled:
		update.CancelReason = &req.Reason
	}

	ok, err := s.scheduleRepo.UpdateStatus(ctx, tenantID, id, sched.Status, target, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The row exists (we just read it), so zero rows means a racer won.
		return nil, faults.ConcurrentModification("schedule", id)
	}
	outcome = "applied"

	oldStatus := string(sched.Status)
	newStatus := string(target)
	entry := &models.ScheduleAudit{
		TenantID:   tenantID,
		ScheduleID: id,
		Action:     models.AuditActionStatusChange,
		OldStatus:  &oldStatus,
		NewStatus:  &newStatus,
		Actor:      actor,
	}
	if req.Reason != "" {
		entry.Reason = &req.Reason
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record transition audit entry")
	}

	if s.producer != nil {
		event := &kafka.ScheduleEvent{
			EventType:  "schedule.status_changed",
			TenantID:   tenantID,
			ScheduleID: id,
			FromStatus: oldStatus,
			ToStatus:   newStatus,
			Reason:     req.Reason,
			ActorID:    actor,
		}
		if err := s.producer.PublishScheduleEvent(ctx, event); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to publish schedule event")
		}
	}

	s.statsCache.Invalidate(ctx, tenantID)

	updated, err := s.scheduleRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	resp := &models.TransitionResponse{Schedule: updated}
	if target == models.ScheduleStatusCompleted || target == models.ScheduleStatusCancelled {
		if open, err := s.issueRepo.CountUnresolvedCritical(ctx, tenantID, id); err == nil && open > 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%d unresolved critical issue(s) remain on this schedule", open))
		}
	}

	return resp, nil
}

// GetAudit retrieves a schedule's audit trail
func (s *Service) GetAudit(ctx context.Context, tenantID string, id string) ([]models.ScheduleAudit, error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Service.GetAudit")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListBySchedule(ctx, tenantID, id)
}

func (s *Service) gateInputs(ctx context.Context, tenantID, id string, sched *models.Schedule, cancelReason string) (lifecycle.GateInputs, error) {
	assignments, err := s.assignmentRepo.CountBySchedule(ctx, tenantID, id)
	if err != nil {
		return lifecycle.GateInputs{}, err
	}
	total, terminal, err := s.deliveryRepo.Counts(ctx, tenantID, id)
	if err != nil {
		return lifecycle.GateInputs{}, err
	}

	return lifecycle.GateInputs{
		AssignmentCount:       assignments,
		DeliveryCount:         total,
		TerminalDeliveryCount: terminal,
		DistributionDate:      sched.DistributionDate,
		Now:                   time.Now().UTC(),
		CancelReason:          cancelReason,
	}, nil
}
