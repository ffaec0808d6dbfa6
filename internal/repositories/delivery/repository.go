package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles delivery leg persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new delivery repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var deliveryColumns = []string{
	"id", "tenant_id", "schedule_id", "target_type", "target_name", "target_address",
	"status", "estimated_arrival", "actual_arrival", "portions_planned", "portions_delivered",
	"driver_name", "helper_names", "food_type",
	"departure_temp_c", "arrival_temp_c", "serving_temp_c",
	"current_lat", "current_lon", "created_at", "updated_at",
}

// Create creates a new delivery leg in ASSIGNED status
func (r *Repository) Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.Create")
	defer span.End()

	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	delivery.Status = models.DeliveryStatusAssigned
	delivery.CreatedAt = time.Now().UTC()
	delivery.UpdatedAt = delivery.CreatedAt
	if delivery.HelperNames == nil {
		delivery.HelperNames = []string{}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("deliveries")
	sb.Cols("id", "tenant_id", "schedule_id", "target_type", "target_name", "target_address", "status", "estimated_arrival", "portions_planned", "driver_name", "helper_names", "food_type", "created_at", "updated_at")
	sb.Values(
		delivery.ID, delivery.TenantID, delivery.ScheduleID, delivery.TargetType,
		delivery.TargetName, delivery.TargetAddress, delivery.Status, delivery.EstimatedArrival,
		delivery.PortionsPlanned, delivery.DriverName, delivery.HelperNames, delivery.FoodType,
		delivery.CreatedAt, delivery.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create delivery")
		return nil, faults.Storage("create delivery")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          delivery.ID,
		"schedule_id": delivery.ScheduleID,
	}).Info("Created delivery")
	return delivery, nil
}

// Get retrieves a delivery by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(deliveryColumns...)
	sb.From("deliveries")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var delivery models.Delivery
	if err := r.db.GetContext(ctx, &delivery, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, faults.NotFound("delivery", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get delivery")
		return nil, faults.Storage("get delivery")
	}

	return &delivery, nil
}

// ListBySchedule retrieves all delivery legs of a schedule
func (r *Repository) ListBySchedule(ctx context.Context, tenantID string, scheduleID string) ([]models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.ListBySchedule")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(deliveryColumns...)
	sb.From("deliveries")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("schedule_id", scheduleID),
	)
	sb.OrderBy("estimated_arrival ASC NULLS LAST", "created_at ASC")

	query, args := sb.Build()
	deliveries := []models.Delivery{}
	if err := r.db.SelectContext(ctx, &deliveries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list deliveries")
		return nil, faults.Storage("list deliveries")
	}

	return deliveries, nil
}

// Counts returns the total and terminal delivery counts for a schedule, for
// transition gates. Terminal covers delivered and failed.
func (r *Repository) Counts(ctx context.Context, tenantID string, scheduleID string) (total int, terminal int, err error) {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.Counts")
	defer span.End()

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('delivered', 'failed')) AS terminal
		FROM deliveries
		WHERE tenant_id = $1 AND schedule_id = $2
	`
	var row struct {
		Total    int `db:"total"`
		Terminal int `db:"terminal"`
	}
	if err := r.db.GetContext(ctx, &row, query, tenantID, scheduleID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count deliveries")
		return 0, 0, faults.Storage("count deliveries")
	}

	return row.Total, row.Terminal, nil
}

// StatusUpdate carries the column changes applied alongside a status change
type StatusUpdate struct {
	PortionsDelivered *int
	ActualArrival     *time.Time
}

// UpdateStatus performs an optimistic compare-and-set status change. Zero
// rows affected means the delivery moved under us.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id string, from, to models.DeliveryStatus, update StatusUpdate) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.UpdateStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("deliveries")
	assignments := []string{
		sb.Assign("status", to),
		sb.Assign("updated_at", now),
	}
	if update.PortionsDelivered != nil {
		assignments = append(assignments, sb.Assign("portions_delivered", *update.PortionsDelivered))
	}
	if update.ActualArrival != nil {
		assignments = append(assignments, sb.Assign("actual_arrival", *update.ActualArrival))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.Equal("status", from),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update delivery status")
		return false, faults.Storage("update delivery status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          id,
		"from_status": from,
		"to_status":   to,
	}).Info("Updated delivery status")
	return true, nil
}

// UpdateTemperature writes one stage's temperature reading
func (r *Repository) UpdateTemperature(ctx context.Context, tenantID, id string, stage string, tempC float64) error {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.UpdateTemperature")
	defer span.End()

	var column string
	switch stage {
	case "departure":
		column = "departure_temp_c"
	case "arrival":
		column = "arrival_temp_c"
	case "serving":
		column = "serving_temp_c"
	default:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown temperature stage %q", stage)
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("deliveries")
	sb.Set(
		sb.Assign(column, tempC),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to record delivery temperature")
		return faults.Storage("record temperature")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return faults.NotFound("delivery", id)
	}

	return nil
}

// UpdatePosition writes the latest known vehicle position onto the delivery
func (r *Repository) UpdatePosition(ctx context.Context, tenantID, id string, lat, lon float64) error {
	ctx, span := tracing.StartSpan(ctx, "delivery.Repository.UpdatePosition")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("deliveries")
	sb.Set(
		sb.Assign("current_lat", lat),
		sb.Assign("current_lon", lon),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update delivery position")
		return faults.Storage("update delivery position")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return faults.NotFound("delivery", id)
	}

	return nil
}
