package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

var allScheduleStatuses = []models.ScheduleStatus{
	models.ScheduleStatusPlanned,
	models.ScheduleStatusPrepared,
	models.ScheduleStatusInProgress,
	models.ScheduleStatusCompleted,
	models.ScheduleStatusCancelled,
}

func TestScheduleTransitionTableIsClosed(t *testing.T) {
	allowed := map[models.ScheduleStatus][]models.ScheduleStatus{
		models.ScheduleStatusPlanned:    {models.ScheduleStatusPrepared, models.ScheduleStatusCancelled},
		models.ScheduleStatusPrepared:   {models.ScheduleStatusInProgress, models.ScheduleStatusCancelled},
		models.ScheduleStatusInProgress: {models.ScheduleStatusCompleted, models.ScheduleStatusCancelled},
		models.ScheduleStatusCompleted:  {},
		models.ScheduleStatusCancelled:  {},
	}

	for _, from := range allScheduleStatuses {
		for _, to := range allScheduleStatuses {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransitionSchedule(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoTargets(t *testing.T) {
	assert.Empty(t, AllowedScheduleTargets(models.ScheduleStatusCompleted))
	assert.Empty(t, AllowedScheduleTargets(models.ScheduleStatusCancelled))
	assert.Empty(t, AllowedDeliveryTargets(models.DeliveryStatusDelivered))
	assert.Empty(t, AllowedDeliveryTargets(models.DeliveryStatusFailed))
}

func TestDeliveryTransitions(t *testing.T) {
	// Normal path
	assert.True(t, CanTransitionDelivery(models.DeliveryStatusAssigned, models.DeliveryStatusDeparted))
	assert.True(t, CanTransitionDelivery(models.DeliveryStatusDeparted, models.DeliveryStatusDelivered))

	// Same-site instantaneous handoff
	assert.True(t, CanTransitionDelivery(models.DeliveryStatusAssigned, models.DeliveryStatusDelivered))

	// FAILED reachable from any non-terminal state
	assert.True(t, CanTransitionDelivery(models.DeliveryStatusAssigned, models.DeliveryStatusFailed))
	assert.True(t, CanTransitionDelivery(models.DeliveryStatusDeparted, models.DeliveryStatusFailed))

	// No leaving a terminal state, no going backwards
	assert.False(t, CanTransitionDelivery(models.DeliveryStatusDelivered, models.DeliveryStatusDeparted))
	assert.False(t, CanTransitionDelivery(models.DeliveryStatusFailed, models.DeliveryStatusDelivered))
	assert.False(t, CanTransitionDelivery(models.DeliveryStatusDeparted, models.DeliveryStatusAssigned))
}

func TestEvaluateGates_Prepared(t *testing.T) {
	violations := EvaluateGates(models.ScheduleStatusPrepared, GateInputs{AssignmentCount: 0})
	assert.Equal(t, []string{ViolationNoVehicleAssigned}, violations)

	violations = EvaluateGates(models.ScheduleStatusPrepared, GateInputs{AssignmentCount: 1})
	assert.Empty(t, violations)
}

func TestEvaluateGates_InProgressCollectsAllViolations(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	violations := EvaluateGates(models.ScheduleStatusInProgress, GateInputs{
		AssignmentCount:  0,
		DistributionDate: now.AddDate(0, 0, 3),
		Now:              now,
	})
	assert.Len(t, violations, 2)
	assert.Contains(t, violations, ViolationNoVehicleAssigned)
	assert.Contains(t, violations, ViolationFutureDate)
}

func TestEvaluateGates_InProgressSameDayAllowed(t *testing.T) {
	// Execution may start on the distribution day itself, regardless of
	// time-of-day on either side.
	now := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	date := time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC)

	violations := EvaluateGates(models.ScheduleStatusInProgress, GateInputs{
		AssignmentCount:  1,
		DistributionDate: date,
		Now:              now,
	})
	assert.Empty(t, violations)
}

func TestEvaluateGates_Completed(t *testing.T) {
	violations := EvaluateGates(models.ScheduleStatusCompleted, GateInputs{DeliveryCount: 0})
	assert.Equal(t, []string{ViolationNoDeliveries}, violations)

	violations = EvaluateGates(models.ScheduleStatusCompleted, GateInputs{DeliveryCount: 3, TerminalDeliveryCount: 2})
	assert.Equal(t, []string{ViolationUnfinishedDeliveries}, violations)

	// FAILED counts as terminal for the completion gate
	violations = EvaluateGates(models.ScheduleStatusCompleted, GateInputs{DeliveryCount: 3, TerminalDeliveryCount: 3})
	assert.Empty(t, violations)
}

func TestEvaluateGates_Cancelled(t *testing.T) {
	violations := EvaluateGates(models.ScheduleStatusCancelled, GateInputs{})
	assert.Equal(t, []string{ViolationMissingCancelReason}, violations)

	violations = EvaluateGates(models.ScheduleStatusCancelled, GateInputs{CancelReason: "vehicle breakdown"})
	assert.Empty(t, violations)
}
