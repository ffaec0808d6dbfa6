package models

import (
	"time"
)

// ScheduleStatus is the lifecycle state of a distribution schedule
type ScheduleStatus string

const (
	ScheduleStatusPlanned    ScheduleStatus = "planned"
	ScheduleStatusPrepared   ScheduleStatus = "prepared"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// IsValid reports whether the value is a known schedule status
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusPlanned, ScheduleStatusPrepared, ScheduleStatusInProgress, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// Schedule is one planned distribution event for a production batch on a
// given date and wave.
type Schedule struct {
	ID                     string         `json:"id" db:"id"`
	TenantID               string         `json:"tenant_id" db:"tenant_id"`
	BatchRef               string         `json:"batch_ref" db:"batch_ref"`
	DistributionDate       time.Time      `json:"distribution_date" db:"distribution_date"`
	Wave                   int            `json:"wave" db:"wave"`
	Status                 ScheduleStatus `json:"status" db:"status"`
	EstimatedBeneficiaries int            `json:"estimated_beneficiaries" db:"estimated_beneficiaries"`
	PackagingCost          float64        `json:"packaging_cost" db:"packaging_cost"`
	FuelCost               float64        `json:"fuel_cost" db:"fuel_cost"`
	StartedAt              *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt            *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CancelReason           *string        `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt              *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsEditable reports whether core fields and assignments may still change
func (s *Schedule) IsEditable() bool {
	return s.Status == ScheduleStatusPlanned || s.Status == ScheduleStatusPrepared
}

// CreateScheduleRequest is the request to create a schedule
type CreateScheduleRequest struct {
	BatchRef               string    `json:"batch_ref" validate:"required"`
	DistributionDate       time.Time `json:"distribution_date" validate:"required"`
	Wave                   int       `json:"wave" validate:"min=1"`
	EstimatedBeneficiaries int       `json:"estimated_beneficiaries" validate:"min=0"`
	PackagingCost          float64   `json:"packaging_cost" validate:"min=0"`
	FuelCost               float64   `json:"fuel_cost" validate:"min=0"`
}

// UpdateScheduleRequest is the request to update schedule planning fields.
// Only permitted while the schedule is editable.
type UpdateScheduleRequest struct {
	BatchRef               *string    `json:"batch_ref,omitempty"`
	DistributionDate       *time.Time `json:"distribution_date,omitempty"`
	Wave                   *int       `json:"wave,omitempty"`
	EstimatedBeneficiaries *int       `json:"estimated_beneficiaries,omitempty"`
	PackagingCost          *float64   `json:"packaging_cost,omitempty"`
	FuelCost               *float64   `json:"fuel_cost,omitempty"`
}

// TransitionRequest is the request to advance a schedule's status
type TransitionRequest struct {
	TargetStatus ScheduleStatus `json:"target_status" validate:"required"`
	Reason       string         `json:"reason,omitempty"`
}

// TransitionResponse returns the updated schedule plus advisory warnings
// (e.g. unresolved critical issues) that do not block the transition.
type TransitionResponse struct {
	Schedule *Schedule `json:"schedule"`
	Warnings []string  `json:"warnings,omitempty"`
}

// ScheduleListResponse is the paginated listing response
type ScheduleListResponse struct {
	Items      []Schedule `json:"items"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// ScheduleFilter narrows schedule listings
type ScheduleFilter struct {
	Status   *ScheduleStatus
	Wave     *int
	DateFrom *time.Time
	DateTo   *time.Time
}

// ScheduleStatistics is the dashboard aggregate, computed on read
type ScheduleStatistics struct {
	ByStatus         map[ScheduleStatus]int `json:"by_status"`
	Today            int                    `json:"today"`
	Upcoming         int                    `json:"upcoming"`
	OnTimePercentage float64                `json:"on_time_percentage"`
}
