package models

import (
	"time"

	"github.com/lib/pq"
)

// DeliveryStatus is the lifecycle state of one destination leg
type DeliveryStatus string

const (
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusDeparted  DeliveryStatus = "departed"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// IsTerminal reports whether the delivery has finished, successfully or not
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusFailed
}

// IsValid reports whether the value is a known delivery status
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusAssigned, DeliveryStatusDeparted, DeliveryStatusDelivered, DeliveryStatusFailed:
		return true
	}
	return false
}

// TargetType distinguishes registered beneficiary sites from ad hoc drops
type TargetType string

const (
	TargetTypeSite  TargetType = "site"
	TargetTypeAdHoc TargetType = "ad_hoc"
)

// FoodType selects the temperature safety band for a delivery's cargo
type FoodType string

const (
	FoodTypeHot  FoodType = "hot"
	FoodTypeCold FoodType = "cold"
)

// Delivery is one leg of a distribution: one schedule to one destination
type Delivery struct {
	ID                string         `json:"id" db:"id"`
	TenantID          string         `json:"tenant_id" db:"tenant_id"`
	ScheduleID        string         `json:"schedule_id" db:"schedule_id"`
	TargetType        TargetType     `json:"target_type" db:"target_type"`
	TargetName        string         `json:"target_name" db:"target_name"`
	TargetAddress     *string        `json:"target_address,omitempty" db:"target_address"`
	Status            DeliveryStatus `json:"status" db:"status"`
	EstimatedArrival  *time.Time     `json:"estimated_arrival,omitempty" db:"estimated_arrival"`
	ActualArrival     *time.Time     `json:"actual_arrival,omitempty" db:"actual_arrival"`
	PortionsPlanned   int            `json:"portions_planned" db:"portions_planned"`
	PortionsDelivered *int           `json:"portions_delivered,omitempty" db:"portions_delivered"`
	DriverName        *string        `json:"driver_name,omitempty" db:"driver_name"`
	HelperNames       pq.StringArray `json:"helper_names" db:"helper_names"`
	FoodType          FoodType       `json:"food_type" db:"food_type"`
	DepartureTempC    *float64       `json:"departure_temp_c,omitempty" db:"departure_temp_c"`
	ArrivalTempC      *float64       `json:"arrival_temp_c,omitempty" db:"arrival_temp_c"`
	ServingTempC      *float64       `json:"serving_temp_c,omitempty" db:"serving_temp_c"`
	CurrentLat        *float64       `json:"current_lat,omitempty" db:"current_lat"`
	CurrentLon        *float64       `json:"current_lon,omitempty" db:"current_lon"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// IsLate is derived from the raw timestamps, never stored
func (d *Delivery) IsLate() bool {
	if d.ActualArrival == nil || d.EstimatedArrival == nil {
		return false
	}
	return d.ActualArrival.After(*d.EstimatedArrival)
}

// CreateDeliveryRequest is the request to create a delivery leg
type CreateDeliveryRequest struct {
	TargetType       TargetType `json:"target_type" validate:"required,oneof=site ad_hoc"`
	TargetName       string     `json:"target_name" validate:"required"`
	TargetAddress    *string    `json:"target_address,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	PortionsPlanned  int        `json:"portions_planned" validate:"min=1"`
	DriverName       *string    `json:"driver_name,omitempty"`
	HelperNames      []string   `json:"helper_names,omitempty"`
	FoodType         FoodType   `json:"food_type" validate:"required,oneof=hot cold"`
}

// UpdateDeliveryStatusRequest advances a delivery's status. Portions delivered
// is required when marking delivered.
type UpdateDeliveryStatusRequest struct {
	Status            DeliveryStatus `json:"status" validate:"required"`
	PortionsDelivered *int           `json:"portions_delivered,omitempty"`
	ActualArrival     *time.Time     `json:"actual_arrival,omitempty"`
}

// RecordTemperatureRequest attaches a temperature reading to a delivery
// stage. TemperatureC is a pointer so a reading of exactly 0°C, the lower
// safe boundary for cold meals, still satisfies required.
type RecordTemperatureRequest struct {
	Stage        string   `json:"stage" validate:"required,oneof=departure arrival serving"`
	TemperatureC *float64 `json:"temperature_c" validate:"required"`
}
