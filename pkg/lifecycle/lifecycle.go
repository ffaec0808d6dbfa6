// Package lifecycle holds the schedule and delivery state machines: the
// closed transition tables and the gate preconditions evaluated before a
// schedule may advance. Everything here is pure; persistence and
// concurrency control live in the services.
package lifecycle

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// scheduleTransitions is the closed transition table. Any pair not listed
// is rejected.
var scheduleTransitions = map[models.ScheduleStatus][]models.ScheduleStatus{
	models.ScheduleStatusPlanned:    {models.ScheduleStatusPrepared, models.ScheduleStatusCancelled},
	models.ScheduleStatusPrepared:   {models.ScheduleStatusInProgress, models.ScheduleStatusCancelled},
	models.ScheduleStatusInProgress: {models.ScheduleStatusCompleted, models.ScheduleStatusCancelled},
	models.ScheduleStatusCompleted:  {},
	models.ScheduleStatusCancelled:  {},
}

// deliveryTransitions is the closed transition table for delivery legs.
// FAILED is reachable from any non-terminal state. ASSIGNED→DELIVERED covers
// same-site instantaneous handoff.
var deliveryTransitions = map[models.DeliveryStatus][]models.DeliveryStatus{
	models.DeliveryStatusAssigned:  {models.DeliveryStatusDeparted, models.DeliveryStatusDelivered, models.DeliveryStatusFailed},
	models.DeliveryStatusDeparted:  {models.DeliveryStatusDelivered, models.DeliveryStatusFailed},
	models.DeliveryStatusDelivered: {},
	models.DeliveryStatusFailed:    {},
}

// AllowedScheduleTargets returns the legal targets from a status, for caller
// feedback on rejected transitions.
func AllowedScheduleTargets(from models.ScheduleStatus) []models.ScheduleStatus {
	targets := scheduleTransitions[from]
	out := make([]models.ScheduleStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransitionSchedule reports whether the pair is in the transition table
func CanTransitionSchedule(from, to models.ScheduleStatus) bool {
	for _, target := range scheduleTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// CanTransitionDelivery reports whether the pair is in the delivery table
func CanTransitionDelivery(from, to models.DeliveryStatus) bool {
	for _, target := range deliveryTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AllowedDeliveryTargets returns the legal targets from a delivery status
func AllowedDeliveryTargets(from models.DeliveryStatus) []models.DeliveryStatus {
	targets := deliveryTransitions[from]
	out := make([]models.DeliveryStatus, len(targets))
	copy(out, targets)
	return out
}

// GateInputs carries the facts the gate conditions are evaluated against.
// The service assembles these from the store before attempting a transition.
type GateInputs struct {
	AssignmentCount       int
	DeliveryCount         int
	TerminalDeliveryCount int
	DistributionDate      time.Time
	Now                   time.Time
	CancelReason          string
}

// Gate violation descriptions, returned together so the caller sees every
// blocking reason at once.
const (
	ViolationNoVehicleAssigned    = "at least one vehicle must be assigned"
	ViolationFutureDate           = "distribution date is in the future; execution cannot start early"
	ViolationNoDeliveries         = "at least one delivery must exist before completion"
	ViolationUnfinishedDeliveries = "every delivery must reach a terminal status before completion"
	ViolationMissingCancelReason  = "a cancellation reason is required"
)

// EvaluateGates collects every unmet precondition for the requested target.
// An empty result means the transition may proceed. Violations are not
// short-circuited.
func EvaluateGates(target models.ScheduleStatus, in GateInputs) []string {
	var violations []string

	switch target {
	case models.ScheduleStatusPrepared:
		if in.AssignmentCount == 0 {
			violations = append(violations, ViolationNoVehicleAssigned)
		}
	case models.ScheduleStatusInProgress:
		if in.AssignmentCount == 0 {
			violations = append(violations, ViolationNoVehicleAssigned)
		}
		if startOfDay(in.DistributionDate).After(startOfDay(in.Now)) {
			violations = append(violations, ViolationFutureDate)
		}
	case models.ScheduleStatusCompleted:
		if in.DeliveryCount == 0 {
			violations = append(violations, ViolationNoDeliveries)
		} else if in.TerminalDeliveryCount < in.DeliveryCount {
			violations = append(violations, ViolationUnfinishedDeliveries)
		}
	case models.ScheduleStatusCancelled:
		if in.CancelReason == "" {
			violations = append(violations, ViolationMissingCancelReason)
		}
	}

	return violations
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
