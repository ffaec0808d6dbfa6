package issue

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles distribution issue persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new issue repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var issueColumns = []string{
	"id", "tenant_id", "schedule_id", "issue_type", "severity", "description",
	"location", "affected_delivery_ids", "reported_by", "reported_at",
	"resolved_by", "resolved_at", "resolution_notes",
}

// Create records a new issue
func (r *Repository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.Create")
	defer span.End()

	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	issue.ReportedAt = time.Now().UTC()
	if issue.AffectedDeliveryIDs == nil {
		issue.AffectedDeliveryIDs = []string{}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("issues")
	sb.Cols("id", "tenant_id", "schedule_id", "issue_type", "severity", "description", "location", "affected_delivery_ids", "reported_by", "reported_at")
	sb.Values(
		issue.ID, issue.TenantID, issue.ScheduleID, issue.IssueType, issue.Severity,
		issue.Description, issue.Location, issue.AffectedDeliveryIDs, issue.ReportedBy, issue.ReportedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create issue")
		return nil, faults.Storage("report issue")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          issue.ID,
		"schedule_id": issue.ScheduleID,
		"severity":    issue.Severity,
	}).Info("Created issue")
	return issue, nil
}

// Get retrieves an issue by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(issueColumns...)
	sb.From("issues")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, faults.NotFound("issue", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get issue")
		return nil, faults.Storage("get issue")
	}

	return &issue, nil
}

// ListBySchedule retrieves a schedule's issues, most recent first
func (r *Repository) ListBySchedule(ctx context.Context, tenantID string, scheduleID string) ([]models.Issue, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.ListBySchedule")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(issueColumns...)
	sb.From("issues")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)
	sb.OrderBy("reported_at DESC")

	query, args := sb.Build()
	issues := []models.Issue{}
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list issues")
		return nil, faults.Storage("list issues")
	}

	return issues, nil
}

// Resolve closes an issue. Resolution is one-way; the guard on resolved_at
// makes a second resolve report zero rows so the caller can surface
// ALREADY_RESOLVED without a read-modify-write race.
func (r *Repository) Resolve(ctx context.Context, tenantID, id, resolvedBy string, notes *string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.Resolve")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("issues")
	sb.Set(
		sb.Assign("resolved_by", resolvedBy),
		sb.Assign("resolved_at", now),
		sb.Assign("resolution_notes", notes),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("resolved_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to resolve issue")
		return false, faults.Storage("resolve issue")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Resolved issue")
	return true, nil
}

// CountUnresolvedCritical counts open critical issues on a schedule, used
// for advisory completion warnings
func (r *Repository) CountUnresolvedCritical(ctx context.Context, tenantID string, scheduleID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.CountUnresolvedCritical")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("issues")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
		sb.Equal("severity", models.IssueSeverityCritical),
		sb.IsNull("resolved_at"),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count unresolved critical issues")
		return 0, faults.Storage("count issues")
	}

	return count, nil
}

// Summary aggregates a schedule's issues for dashboards
func (r *Repository) Summary(ctx context.Context, tenantID string, scheduleID string) (*models.IssueSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "issue.Repository.Summary")
	defer span.End()

	issues, err := r.ListBySchedule(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}

	summary := &models.IssueSummary{
		BySeverity: make(map[models.IssueSeverity]int),
		ByType:     make(map[models.IssueType]int),
	}
	for i := range issues {
		summary.Total++
		if issues[i].IsResolved() {
			summary.Resolved++
		} else {
			summary.Unresolved++
		}
		summary.BySeverity[issues[i].Severity]++
		summary.ByType[issues[i].IssueType]++
	}

	return summary, nil
}
