package models

import "time"

// TrackingPoint is one GPS observation for a delivery. Points are immutable
// once written; distance computation orders by recorded_at, not insertion.
type TrackingPoint struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	DeliveryID  string    `json:"delivery_id" db:"delivery_id"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	AccuracyM   *float64  `json:"accuracy_m,omitempty" db:"accuracy_m"`
	StatusLabel *string   `json:"status_label,omitempty" db:"status_label"`
	Note        *string   `json:"note,omitempty" db:"note"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RecordLocationRequest is one location push from the tracking client
type RecordLocationRequest struct {
	Latitude   float64         `json:"latitude" validate:"min=-90,max=90"`
	Longitude  float64         `json:"longitude" validate:"min=-180,max=180"`
	AccuracyM  *float64        `json:"accuracy_m,omitempty"`
	Status     *DeliveryStatus `json:"status,omitempty"`
	Note       *string         `json:"note,omitempty"`
	RecordedAt *time.Time      `json:"recorded_at,omitempty"`
}

// TrackingHistory is the ordered trail plus read-side aggregates
type TrackingHistory struct {
	Points          []TrackingPoint `json:"points"`
	PointCount      int             `json:"point_count"`
	TotalDistanceKm float64         `json:"total_distance_km"`
	LatestPoint     *TrackingPoint  `json:"latest_point,omitempty"`
}
