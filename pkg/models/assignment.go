package models

import (
	"time"

	"github.com/lib/pq"
)

// VehicleAssignment binds one vehicle and driver to exactly one schedule.
// Assignments are never updated in place; reassignment is delete-and-recreate.
type VehicleAssignment struct {
	ID            string         `json:"id" db:"id"`
	TenantID      string         `json:"tenant_id" db:"tenant_id"`
	ScheduleID    string         `json:"schedule_id" db:"schedule_id"`
	VehicleID     string         `json:"vehicle_id" db:"vehicle_id"`
	DriverID      string         `json:"driver_id" db:"driver_id"`
	Helpers       pq.StringArray `json:"helpers" db:"helpers"`
	WindowStart   *time.Time     `json:"window_start,omitempty" db:"window_start"`
	WindowEnd     *time.Time     `json:"window_end,omitempty" db:"window_end"`
	StartLocation *string        `json:"start_location,omitempty" db:"start_location"`
	EndLocation   *string        `json:"end_location,omitempty" db:"end_location"`
	Notes         *string        `json:"notes,omitempty" db:"notes"`

	// Copied from the owning schedule so the conflict scan is a single-table
	// query; the schedule's values are the authority.
	DistributionDate time.Time `json:"distribution_date" db:"distribution_date"`
	Wave             int       `json:"wave" db:"wave"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateAssignmentRequest is the request to assign a vehicle to a schedule
type CreateAssignmentRequest struct {
	VehicleID     string     `json:"vehicle_id" validate:"required"`
	DriverID      string     `json:"driver_id" validate:"required"`
	Helpers       []string   `json:"helpers,omitempty"`
	WindowStart   *time.Time `json:"window_start,omitempty"`
	WindowEnd     *time.Time `json:"window_end,omitempty"`
	StartLocation *string    `json:"start_location,omitempty"`
	EndLocation   *string    `json:"end_location,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}
