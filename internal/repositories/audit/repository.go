package audit

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

// Repository handles schedule audit trail persistence. Entries are
// append-only; there is no update or delete path.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var auditColumns = []string{
	"id", "tenant_id", "schedule_id", "action", "old_status", "new_status",
	"reason", "actor", "created_at",
}

// Create appends one audit entry
func (r *Repository) Create(ctx context.Context, entry *models.ScheduleAudit) error {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.Create")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("schedule_audits")
	sb.Cols(auditColumns...)
	sb.Values(
		entry.ID, entry.TenantID, entry.ScheduleID, entry.Action,
		entry.OldStatus, entry.NewStatus, entry.Reason, entry.Actor, entry.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create audit entry")
		return faults.Storage("record audit entry")
	}

	return nil
}

// ListBySchedule retrieves a schedule's audit trail, oldest first
func (r *Repository) ListBySchedule(ctx context.Context, tenantID string, scheduleID string) ([]models.ScheduleAudit, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.ListBySchedule")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(auditColumns...)
	sb.From("schedule_audits")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	entries := []models.ScheduleAudit{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list audit entries")
		return nil, faults.Storage("list audit entries")
	}

	return entries, nil
}
