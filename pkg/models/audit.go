package models

import "time"

// AuditAction is the kind of recorded change
type AuditAction string

const (
	AuditActionStatusChange      AuditAction = "status_change"
	AuditActionVehicleAssigned   AuditAction = "vehicle_assigned"
	AuditActionVehicleUnassigned AuditAction = "vehicle_unassigned"
)

// ScheduleAudit records one change to a schedule: who, what, when. Written
// in the same transaction as the change itself.
type ScheduleAudit struct {
	ID         string      `json:"id" db:"id"`
	TenantID   string      `json:"tenant_id" db:"tenant_id"`
	ScheduleID string      `json:"schedule_id" db:"schedule_id"`
	Action     AuditAction `json:"action" db:"action"`
	OldStatus  *string     `json:"old_status,omitempty" db:"old_status"`
	NewStatus  *string     `json:"new_status,omitempty" db:"new_status"`
	Reason     *string     `json:"reason,omitempty" db:"reason"`
	Actor      string      `json:"actor" db:"actor"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
