package assignment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles vehicle assignment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new vehicle assignment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var assignmentColumns = []string{
	"id", "tenant_id", "schedule_id", "vehicle_id", "driver_id", "helpers",
	"window_start", "window_end", "start_location", "end_location", "notes",
	"distribution_date", "wave", "created_at",
}

// isSerializationFailure reports whether Postgres aborted the loser of a
// serializable conflict (SQLSTATE 40001). The caller lost the booking race.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

type conflictRow struct {
	ScheduleID string `db:"schedule_id"`
	VehicleID  string `db:"vehicle_id"`
}

// Create inserts an assignment after checking it against every live booking
// of the same vehicle. The scan and insert run in one serializable
// transaction so two racing requests cannot both book the vehicle; the
// loser's insert fails on the scan re-run or the unique index.
func (r *Repository) Create(ctx context.Context, assignment *models.VehicleAssignment) (*models.VehicleAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.Create")
	defer span.End()

	if assignment.ID == "" {
		assignment.ID = uuid.New().String()
	}
	assignment.CreatedAt = time.Now().UTC()
	if assignment.Helpers == nil {
		assignment.Helpers = []string{}
	}

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to start assignment transaction")
		return nil, faults.Storage("assign vehicle")
	}
	defer tx.Rollback(ctx)

	// Scan every live booking of this vehicle on the same date and wave.
	// The date and wave on assignments are copied from the owning schedule,
	// so only the status check needs the join.
	query := `
		SELECT va.schedule_id, va.vehicle_id
		FROM vehicle_assignments va
		JOIN schedules s ON s.id = va.schedule_id
		WHERE va.tenant_id = $1
		  AND va.vehicle_id = $2
		  AND va.distribution_date = $3
		  AND va.wave = $4
		  AND s.status NOT IN ('completed', 'cancelled')
		  AND s.deleted_at IS NULL
	`
	var conflicts []conflictRow
	if err := tx.SelectContext(ctx, &conflicts, query, assignment.TenantID, assignment.VehicleID, assignment.DistributionDate, assignment.Wave); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to scan for vehicle conflicts")
		return nil, faults.Storage("assign vehicle")
	}

	for _, c := range conflicts {
		if c.ScheduleID == assignment.ScheduleID {
			return nil, faults.DuplicateAssignment(assignment.VehicleID, assignment.ScheduleID)
		}
		return nil, faults.VehicleConflict(assignment.VehicleID, c.ScheduleID)
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("vehicle_assignments")
	sb.Cols(assignmentColumns...)
	sb.Values(
		assignment.ID, assignment.TenantID, assignment.ScheduleID, assignment.VehicleID,
		assignment.DriverID, assignment.Helpers, assignment.WindowStart, assignment.WindowEnd,
		assignment.StartLocation, assignment.EndLocation, assignment.Notes,
		assignment.DistributionDate, assignment.Wave, assignment.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isSerializationFailure(err) {
			return nil, faults.ConcurrentModification("vehicle assignment", assignment.VehicleID)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create vehicle assignment")
		return nil, faults.Storage("assign vehicle")
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return nil, faults.ConcurrentModification("vehicle assignment", assignment.VehicleID)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit vehicle assignment")
		return nil, faults.Storage("assign vehicle")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          assignment.ID,
		"schedule_id": assignment.ScheduleID,
		"vehicle_id":  assignment.VehicleID,
	}).Info("Created vehicle assignment")
	return assignment, nil
}

// Get retrieves an assignment by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.VehicleAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(assignmentColumns...)
	sb.From("vehicle_assignments")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var assignment models.VehicleAssignment
	if err := r.db.GetContext(ctx, &assignment, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, faults.NotFound("assignment", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get vehicle assignment")
		return nil, faults.Storage("get assignment")
	}

	return &assignment, nil
}

// ListBySchedule retrieves all assignments for a schedule
func (r *Repository) ListBySchedule(ctx context.Context, tenantID string, scheduleID string) ([]models.VehicleAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.ListBySchedule")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(assignmentColumns...)
	sb.From("vehicle_assignments")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	assignments := []models.VehicleAssignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list vehicle assignments")
		return nil, faults.Storage("list assignments")
	}

	return assignments, nil
}

// CountBySchedule counts assignments on a schedule, for transition gates
func (r *Repository) CountBySchedule(ctx context.Context, tenantID string, scheduleID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.CountBySchedule")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("vehicle_assignments")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count vehicle assignments")
		return 0, faults.Storage("count assignments")
	}

	return count, nil
}

// Delete removes an assignment. Assignments are never edited in place, so
// this is a hard delete; reassignment recreates the row.
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("vehicle_assignments")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete vehicle assignment")
		return faults.Storage("delete assignment")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return faults.NotFound("assignment", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted vehicle assignment")
	return nil
}

// SyncScheduleFields refreshes the copied distribution_date and wave on all
// of a schedule's assignments after the schedule's planning fields change.
func (r *Repository) SyncScheduleFields(ctx context.Context, tenantID string, scheduleID string, distributionDate time.Time, wave int) error {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.SyncScheduleFields")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("vehicle_assignments")
	sb.Set(
		sb.Assign("distribution_date", distributionDate),
		sb.Assign("wave", wave),
	)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to sync assignment schedule fields")
		return faults.Storage("sync assignments")
	}

	return nil
}
