package models

import (
	"time"

	"github.com/lib/pq"
)

// IssueSeverity ranks operational incidents
type IssueSeverity string

const (
	IssueSeverityCritical IssueSeverity = "critical"
	IssueSeverityHigh     IssueSeverity = "high"
	IssueSeverityMedium   IssueSeverity = "medium"
	IssueSeverityLow      IssueSeverity = "low"
)

// IsValid reports whether the value is a known severity
func (s IssueSeverity) IsValid() bool {
	switch s {
	case IssueSeverityCritical, IssueSeverityHigh, IssueSeverityMedium, IssueSeverityLow:
		return true
	}
	return false
}

// IssueType is the enumerated incident category
type IssueType string

const (
	IssueTypeVehicleBreakdown IssueType = "vehicle_breakdown"
	IssueTypeTrafficDelay     IssueType = "traffic_delay"
	IssueTypeFoodQuality      IssueType = "food_quality"
	IssueTypePortionShortage  IssueType = "portion_shortage"
	IssueTypeSiteUnavailable  IssueType = "site_unavailable"
	IssueTypeWeather          IssueType = "weather"
	IssueTypeOther            IssueType = "other"
)

// Issue is an operational incident tied to a distribution execution,
// not necessarily to a single delivery.
type Issue struct {
	ID                  string         `json:"id" db:"id"`
	TenantID            string         `json:"tenant_id" db:"tenant_id"`
	ScheduleID          string         `json:"schedule_id" db:"schedule_id"`
	IssueType           IssueType      `json:"issue_type" db:"issue_type"`
	Severity            IssueSeverity  `json:"severity" db:"severity"`
	Description         string         `json:"description" db:"description"`
	Location            *string        `json:"location,omitempty" db:"location"`
	AffectedDeliveryIDs pq.StringArray `json:"affected_delivery_ids" db:"affected_delivery_ids"`
	ReportedBy          string         `json:"reported_by" db:"reported_by"`
	ReportedAt          time.Time      `json:"reported_at" db:"reported_at"`
	ResolvedBy          *string        `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt          *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolutionNotes     *string        `json:"resolution_notes,omitempty" db:"resolution_notes"`
}

// IsResolved reports whether the one-way resolution transition has happened
func (i *Issue) IsResolved() bool {
	return i.ResolvedAt != nil
}

// ReportIssueRequest is the request to record an incident
type ReportIssueRequest struct {
	IssueType           IssueType     `json:"issue_type" validate:"required"`
	Severity            IssueSeverity `json:"severity" validate:"required,oneof=critical high medium low"`
	Description         string        `json:"description" validate:"required"`
	Location            *string       `json:"location,omitempty"`
	AffectedDeliveryIDs []string      `json:"affected_delivery_ids,omitempty"`
}

// ResolveIssueRequest is the request to close an incident
type ResolveIssueRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// IssueSummary aggregates incidents for one execution, for dashboards and
// advisory transition warnings.
type IssueSummary struct {
	Total      int                   `json:"total"`
	Resolved   int                   `json:"resolved"`
	Unresolved int                   `json:"unresolved"`
	BySeverity map[IssueSeverity]int `json:"by_severity"`
	ByType     map[IssueType]int     `json:"by_type"`
}
