package trackingpoint

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

// Repository handles GPS tracking point persistence. Points are append-only.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new tracking point repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var trackingPointColumns = []string{
	"id", "tenant_id", "delivery_id", "latitude", "longitude",
	"accuracy_m", "status_label", "note", "recorded_at", "created_at",
}

// Create appends one tracking point
func (r *Repository) Create(ctx context.Context, point *models.TrackingPoint) (*models.TrackingPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "trackingpoint.Repository.Create")
	defer span.End()

	if point.ID == "" {
		point.ID = uuid.New().String()
	}
	point.CreatedAt = time.Now().UTC()
	if point.RecordedAt.IsZero() {
		point.RecordedAt = point.CreatedAt
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("tracking_points")
	sb.Cols(trackingPointColumns...)
	sb.Values(
		point.ID, point.TenantID, point.DeliveryID, point.Latitude, point.Longitude,
		point.AccuracyM, point.StatusLabel, point.Note, point.RecordedAt, point.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create tracking point")
		return nil, faults.Storage("record tracking point")
	}

	return point, nil
}

// ListByDelivery retrieves every point for a delivery ordered by when it was
// observed, not when it arrived. Late-arriving points slot into place.
func (r *Repository) ListByDelivery(ctx context.Context, tenantID string, deliveryID string) ([]models.TrackingPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "trackingpoint.Repository.ListByDelivery")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(trackingPointColumns...)
	sb.From("tracking_points")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("delivery_id", deliveryID),
	)
	sb.OrderBy("recorded_at ASC", "created_at ASC")

	query, args := sb.Build()
	points := []models.TrackingPoint{}
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list tracking points")
		return nil, faults.Storage("list tracking points")
	}

	return points, nil
}

// CountByDelivery counts a delivery's tracking points
func (r *Repository) CountByDelivery(ctx context.Context, tenantID string, deliveryID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "trackingpoint.Repository.CountByDelivery")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("tracking_points")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("delivery_id", deliveryID),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count tracking points")
		return 0, faults.Storage("count tracking points")
	}

	return count, nil
}
