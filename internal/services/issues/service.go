package issues

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/delivery"
	issuerepo "github.com/Ramsey-B/fern/internal/repositories/issue"
	"github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service records and resolves operational issues during distribution
// executions. Issues never block lifecycle transitions; unresolved critical
// ones surface as advisory warnings on completion.
type Service struct {
	issueRepo    *issuerepo.Repository
	scheduleRepo *schedule.Repository
	deliveryRepo *delivery.Repository
	producer     *kafka.Producer
	logger       ectologger.Logger
}

// NewService creates a new issues service
func NewService(
	issueRepo *issuerepo.Repository,
	scheduleRepo *schedule.Repository,
	deliveryRepo *delivery.Repository,
	producer *kafka.Producer,
	logger ectologger.Logger,
) *Service {
	return &Service{
		issueRepo:    issueRepo,
		scheduleRepo: scheduleRepo,
		deliveryRepo: deliveryRepo,
		producer:     producer,
		logger:       logger,
	}
}

// Report records an incident against a schedule. Affected deliveries, when
// named, must belong to that schedule.
func (s *Service) Report(ctx context.Context, tenantID string, scheduleID string, reportedBy string, req models.ReportIssueRequest) (*models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issues.Service.Report")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID); err != nil {
		return nil, err
	}

	for _, deliveryID := range req.AffectedDeliveryIDs {
		del, err := s.deliveryRepo.Get(ctx, tenantID, deliveryID)
		if err != nil {
			return nil, err
		}
		if del.ScheduleID != scheduleID {
			return nil, faults.NotFound("delivery", deliveryID)
		}
	}

	issue := &models.Issue{
		TenantID:            tenantID,
		ScheduleID:          scheduleID,
		IssueType:           req.IssueType,
		Severity:            req.Severity,
		Description:         req.Description,
		Location:            req.Location,
		AffectedDeliveryIDs: req.AffectedDeliveryIDs,
		ReportedBy:          reportedBy,
	}

	created, err := s.issueRepo.Create(ctx, issue)
	if err != nil {
		return nil, err
	}

	metrics.IssuesReportedTotal.WithLabelValues(tenantID, string(req.Severity)).Inc()

	if s.producer != nil {
		event := &kafka.IssueEvent{
			EventType: "issue.reported",
			TenantID:  tenantID,
			IssueID:   created.ID,
			IssueType: string(created.IssueType),
			Severity:  string(created.Severity),
		}
		if err := s.producer.PublishIssueEvent(ctx, event); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to publish issue event")
		}
	}

	return created, nil
}

// Resolve closes an issue. Resolution is one-way; a second attempt fails
// with ALREADY_RESOLVED.
func (s *Service) Resolve(ctx context.Context, tenantID string, id string, resolvedBy string, req models.ResolveIssueRequest) (*models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issues.Service.Resolve")
	defer span.End()

	ok, err := s.issueRepo.Resolve(ctx, tenantID, id, resolvedBy, req.Notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Zero rows: either the issue does not exist or it is already
		// resolved. The re-read distinguishes the two.
		existing, err := s.issueRepo.Get(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if existing.IsResolved() {
			return nil, faults.AlreadyResolved(id)
		}
		return nil, faults.ConcurrentModification("issue", id)
	}

	resolved, err := s.issueRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if s.producer != nil {
		event := &kafka.IssueEvent{
			EventType: "issue.resolved",
			TenantID:  tenantID,
			IssueID:   id,
			IssueType: string(resolved.IssueType),
			Severity:  string(resolved.Severity),
		}
		if err := s.producer.PublishIssueEvent(ctx, event); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to publish issue event")
		}
	}

	return resolved, nil
}

// Get retrieves an issue by ID
func (s *Service) Get(ctx context.Context, tenantID string, id string) (*models.Issue, error) {
	return s.issueRepo.Get(ctx, tenantID, id)
}

// ListBySchedule retrieves a schedule's issues
func (s *Service) ListBySchedule(ctx context.Context, tenantID string, scheduleID string) ([]models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issues.Service.ListBySchedule")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID); err != nil {
		return nil, err
	}
	return s.issueRepo.ListBySchedule(ctx, tenantID, scheduleID)
}

// Summary aggregates a schedule's issues
func (s *Service) Summary(ctx context.Context, tenantID string, scheduleID string) (*models.IssueSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "issues.Service.Summary")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID); err != nil {
		return nil, err
	}
	return s.issueRepo.Summary(ctx, tenantID, scheduleID)
}
