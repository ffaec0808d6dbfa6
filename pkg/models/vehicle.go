package models

import "time"

// Vehicle is the registry read model. This service never mutates vehicles;
// fleet management owns the table.
type Vehicle struct {
	ID               string     `json:"id" db:"id"`
	TenantID         string     `json:"tenant_id" db:"tenant_id"`
	PlateNumber      string     `json:"plate_number" db:"plate_number"`
	VehicleType      string     `json:"vehicle_type" db:"vehicle_type"`
	CapacityPortions int        `json:"capacity_portions" db:"capacity_portions"`
	IsRefrigerated   bool       `json:"is_refrigerated" db:"is_refrigerated"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
