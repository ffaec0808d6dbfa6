package schedule

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

// Repository handles distribution schedule persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new schedule repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

var scheduleColumns = []string{
	"id", "tenant_id", "batch_ref", "distribution_date", "wave", "status",
	"estimated_beneficiaries", "packaging_cost", "fuel_cost",
	"started_at", "completed_at", "cancel_reason",
	"created_at", "updated_at", "deleted_at",
}

// Create creates a new schedule in PLANNED status
func (r *Repository) Create(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.Create")
	defer span.End()

	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	schedule.Status = models.ScheduleStatusPlanned
	schedule.CreatedAt = time.Now().UTC()
	schedule.UpdatedAt = schedule.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("schedules")
	sb.Cols("id", "tenant_id", "batch_ref", "distribution_date", "wave", "status", "estimated_beneficiaries", "packaging_cost", "fuel_cost", "created_at", "updated_at")
	sb.Values(schedule.ID, schedule.TenantID, schedule.BatchRef, schedule.DistributionDate, schedule.Wave, schedule.Status, schedule.EstimatedBeneficiaries, schedule.PackagingCost, schedule.FuelCost, schedule.CreatedAt, schedule.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create schedule")
		return nil, faults.Storage("create schedule")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": schedule.ID}).Info("Created schedule")
	return schedule, nil
}

// Get retrieves a schedule by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Schedule, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(scheduleColumns...)
	sb.From("schedules")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, faults.NotFound("schedule", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get schedule")
		return nil, faults.Storage("get schedule")
	}

	return &schedule, nil
}

// List retrieves schedules matching the filter, newest distribution date first
func (r *Repository) List(ctx context.Context, tenantID string, filter models.ScheduleFilter, page, pageSize int) (*models.ScheduleListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	where := func(sb *sqlbuilder.SelectBuilder) {
		conds := []string{
			sb.Equal("tenant_id", tenantID),
			sb.IsNull("deleted_at"),
		}
		if filter.Status != nil {
			conds = append(conds, sb.Equal("status", *filter.Status))
		}
		if filter.Wave != nil {
			conds = append(conds, sb.Equal("wave", *filter.Wave))
		}
		if filter.DateFrom != nil {
			conds = append(conds, sb.GreaterEqualThan("distribution_date", *filter.DateFrom))
		}
		if filter.DateTo != nil {
			conds = append(conds, sb.LessEqualThan("distribution_date", *filter.DateTo))
		}
		sb.Where(conds...)
	}

	countSB := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSB.Select("COUNT(*)")
	countSB.From("schedules")
	where(countSB)

	query, args := countSB.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count schedules")
		return nil, faults.Storage("list schedules")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(scheduleColumns...)
	sb.From("schedules")
	where(sb)
	sb.OrderBy("distribution_date DESC", "wave ASC", "created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args = sb.Build()
	items := []models.Schedule{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list schedules")
		return nil, faults.Storage("list schedules")
	}

	return &models.ScheduleListResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Update rewrites the editable planning fields. The service layer enforces
// that the schedule is still editable before calling this.
func (r *Repository) Update(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.Update")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("schedules")
	sb.Set(
		sb.Assign("batch_ref", schedule.BatchRef),
		sb.Assign("distribution_date", schedule.DistributionDate),
		sb.Assign("wave", schedule.Wave),
		sb.Assign("estimated_beneficiaries", schedule.EstimatedBeneficiaries),
		sb.Assign("packaging_cost", schedule.PackagingCost),
		sb.Assign("fuel_cost", schedule.FuelCost),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", schedule.ID),
		sb.Equal("tenant_id", schedule.TenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update schedule")
		return nil, faults.Storage("update schedule")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, faults.NotFound("schedule", schedule.ID)
	}

	return r.Get(ctx, schedule.TenantID, schedule.ID)
}

// StatusUpdate carries the column changes applied alongside a transition
type StatusUpdate struct {
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelReason *string
}

// UpdateStatus performs an optimistic compare-and-set status change. Zero
// rows affected means the schedule moved under us (or vanished); the caller
// distinguishes via a re-read.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id string, from, to models.ScheduleStatus, update StatusUpdate) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.UpdateStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("schedules")
	assignments := []string{
		sb.Assign("status", to),
		sb.Assign("updated_at", now),
	}
	if update.StartedAt != nil {
		assignments = append(assignments, sb.Assign("started_at", *update.StartedAt))
	}
	if update.CompletedAt != nil {
		assignments = append(assignments, sb.Assign("completed_at", *update.CompletedAt))
	}
	if update.CancelReason != nil {
		assignments = append(assignments, sb.Assign("cancel_reason", *update.CancelReason))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.Equal("status", from),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update schedule status")
		return false, faults.Storage("update schedule status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          id,
		"from_status": from,
		"to_status":   to,
	}).Info("Updated schedule status")
	return true, nil
}

// SoftDelete marks a schedule as deleted. Only non-started schedules may be
// deleted; the service layer enforces that.
func (r *Repository) SoftDelete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.SoftDelete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("schedules")
	sb.Set(sb.Assign("deleted_at", now))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to soft delete schedule")
		return faults.Storage("delete schedule")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return faults.NotFound("schedule", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Soft deleted schedule")
	return nil
}

type statusCount struct {
	Status models.ScheduleStatus `db:"status"`
	Count  int                   `db:"count"`
}

// Statistics computes the dashboard aggregate from raw rows
func (r *Repository) Statistics(ctx context.Context, tenantID string) (*models.ScheduleStatistics, error) {
	ctx, span := tracing.StartSpan(ctx, "schedule.Repository.Statistics")
	defer span.End()

	stats := &models.ScheduleStatistics{
		ByStatus: make(map[models.ScheduleStatus]int),
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("status", "COUNT(*) AS count")
	sb.From("schedules")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.GroupBy("status")

	query, args := sb.Build()
	var counts []statusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count schedules by status")
		return nil, faults.Storage("compute schedule statistics")
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	tomorrow := today.Add(24 * time.Hour)

	sb = sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("schedules")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
		sb.GreaterEqualThan("distribution_date", today),
		sb.LessThan("distribution_date", tomorrow),
	)
	query, args = sb.Build()
	if err := r.db.GetContext(ctx, &stats.Today, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count today's schedules")
		return nil, faults.Storage("compute schedule statistics")
	}

	sb = sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("schedules")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
		sb.GreaterEqualThan("distribution_date", tomorrow),
		sb.NotIn("status", models.ScheduleStatusCompleted, models.ScheduleStatusCancelled),
	)
	query, args = sb.Build()
	if err := r.db.GetContext(ctx, &stats.Upcoming, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count upcoming schedules")
		return nil, faults.Storage("compute schedule statistics")
	}

	// On-time rate over completed deliveries: both arrival timestamps present
	// and actual <= estimated. Deliveries without estimates are excluded.
	query = `
		SELECT
			COUNT(*) FILTER (WHERE d.actual_arrival <= d.estimated_arrival) AS on_time,
			COUNT(*) AS total
		FROM deliveries d
		JOIN schedules s ON s.id = d.schedule_id
		WHERE d.tenant_id = $1
		  AND d.status = 'delivered'
		  AND d.actual_arrival IS NOT NULL
		  AND d.estimated_arrival IS NOT NULL
		  AND s.deleted_at IS NULL
	`
	var onTime struct {
		OnTime int `db:"on_time"`
		Total  int `db:"total"`
	}
	if err := r.db.GetContext(ctx, &onTime, query, tenantID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to compute on-time percentage")
		return nil, faults.Storage("compute schedule statistics")
	}
	if onTime.Total > 0 {
		stats.OnTimePercentage = float64(onTime.OnTime) / float64(onTime.Total) * 100
	}

	return stats, nil
}
