package vehicle

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository reads the vehicle registry. The fleet service owns writes.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new vehicle repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var vehicleColumns = []string{
	"id", "tenant_id", "plate_number", "vehicle_type", "capacity_portions",
	"is_refrigerated", "is_active", "created_at", "updated_at", "deleted_at",
}

// Get retrieves a vehicle by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Vehicle, error) {
	ctx, span := tracing.StartSpan(ctx, "vehicle.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(vehicleColumns...)
	sb.From("vehicles")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, faults.NotFound("vehicle", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get vehicle")
		return nil, faults.Storage("get vehicle")
	}

	return &vehicle, nil
}

// List retrieves the tenant's vehicles, optionally active only
func (r *Repository) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Vehicle, error) {
	ctx, span := tracing.StartSpan(ctx, "vehicle.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(vehicleColumns...)
	sb.From("vehicles")
	conds := []string{
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	}
	if activeOnly {
		conds = append(conds, sb.Equal("is_active", true))
	}
	sb.Where(conds...)
	sb.OrderBy("plate_number ASC")

	query, args := sb.Build()
	vehicles := []models.Vehicle{}
	if err := r.db.SelectContext(ctx, &vehicles, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list vehicles")
		return nil, faults.Storage("list vehicles")
	}

	return vehicles, nil
}
