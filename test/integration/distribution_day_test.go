package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/foodsafety"
	"github.com/Ramsey-B/fern/pkg/geo"
	"github.com/Ramsey-B/fern/pkg/lifecycle"
	"github.com/Ramsey-B/fern/pkg/models"
)

// TestDistributionDay walks a schedule through a full distribution day:
// planning, preparation, execution with telemetry and temperature readings,
// and completion once every leg is terminal.
func TestDistributionDay(t *testing.T) {
	distributionDate := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	now := distributionDate.Add(9 * time.Hour)

	// Planning: a fresh schedule cannot start or complete.
	assert.False(t, lifecycle.CanTransitionSchedule(models.ScheduleStatusPlanned, models.ScheduleStatusInProgress))
	assert.False(t, lifecycle.CanTransitionSchedule(models.ScheduleStatusPlanned, models.ScheduleStatusCompleted))
	assert.True(t, lifecycle.CanTransitionSchedule(models.ScheduleStatusPlanned, models.ScheduleStatusPrepared))

	// Preparation without a vehicle is blocked by the gate, not the table.
	violations := lifecycle.EvaluateGates(models.ScheduleStatusPrepared, lifecycle.GateInputs{
		AssignmentCount:  0,
		DistributionDate: distributionDate,
		Now:              now,
	})
	require.Contains(t, violations, lifecycle.ViolationNoVehicleAssigned)

	// With a vehicle booked the schedule prepares and starts on the day.
	gateInputs := lifecycle.GateInputs{
		AssignmentCount:  1,
		DeliveryCount:    2,
		DistributionDate: distributionDate,
		Now:              now,
	}
	assert.Empty(t, lifecycle.EvaluateGates(models.ScheduleStatusPrepared, gateInputs))
	assert.Empty(t, lifecycle.EvaluateGates(models.ScheduleStatusInProgress, gateInputs))

	// Starting a day early is blocked.
	early := gateInputs
	early.Now = distributionDate.Add(-24 * time.Hour)
	assert.Contains(t, lifecycle.EvaluateGates(models.ScheduleStatusInProgress, early), lifecycle.ViolationFutureDate)

	// Execution: legs advance assigned -> departed -> delivered.
	require.True(t, lifecycle.CanTransitionDelivery(models.DeliveryStatusAssigned, models.DeliveryStatusDeparted))
	require.True(t, lifecycle.CanTransitionDelivery(models.DeliveryStatusDeparted, models.DeliveryStatusDelivered))
	assert.True(t, lifecycle.CanTransitionDelivery(models.DeliveryStatusAssigned, models.DeliveryStatusDelivered))
	assert.False(t, lifecycle.CanTransitionDelivery(models.DeliveryStatusDelivered, models.DeliveryStatusDeparted))

	// Telemetry trail for the first leg, kitchen to site.
	points := []models.TrackingPoint{
		{Latitude: 41.0082, Longitude: 28.9784, RecordedAt: now},
		{Latitude: 41.0151, Longitude: 28.9795, RecordedAt: now.Add(10 * time.Minute)},
		{Latitude: 41.0255, Longitude: 28.9744, RecordedAt: now.Add(25 * time.Minute)},
	}
	distance := geo.TotalDistanceKm(points)
	assert.Greater(t, distance, 0.0)
	assert.Less(t, distance, 10.0)

	latest := geo.LatestPoint(points)
	require.NotNil(t, latest)
	assert.Equal(t, now.Add(25*time.Minute), latest.RecordedAt)

	// Hot meal cools from a safe departure to a danger serving reading.
	assert.Equal(t, foodsafety.ClassificationSafe, foodsafety.Classify(72.0, models.FoodTypeHot))
	assert.Equal(t, foodsafety.ClassificationWarning, foodsafety.Classify(57.0, models.FoodTypeHot))
	assert.Equal(t, foodsafety.ClassificationDanger, foodsafety.Classify(48.0, models.FoodTypeHot))

	// Completion is blocked until both legs are terminal.
	partial := gateInputs
	partial.TerminalDeliveryCount = 1
	assert.Contains(t, lifecycle.EvaluateGates(models.ScheduleStatusCompleted, partial), lifecycle.ViolationUnfinishedDeliveries)

	done := gateInputs
	done.TerminalDeliveryCount = 2
	assert.Empty(t, lifecycle.EvaluateGates(models.ScheduleStatusCompleted, done))
	assert.True(t, lifecycle.CanTransitionSchedule(models.ScheduleStatusInProgress, models.ScheduleStatusCompleted))

	// Completed is terminal.
	assert.True(t, models.ScheduleStatusCompleted.IsTerminal())
	assert.Empty(t, lifecycle.AllowedScheduleTargets(models.ScheduleStatusCompleted))
}

// TestCancellationPath covers the abort paths out of each live state.
func TestCancellationPath(t *testing.T) {
	for _, from := range []models.ScheduleStatus{
		models.ScheduleStatusPlanned,
		models.ScheduleStatusPrepared,
		models.ScheduleStatusInProgress,
	} {
		assert.True(t, lifecycle.CanTransitionSchedule(from, models.ScheduleStatusCancelled), "from %s", from)
	}
	assert.False(t, lifecycle.CanTransitionSchedule(models.ScheduleStatusCompleted, models.ScheduleStatusCancelled))

	// A reason is mandatory.
	violations := lifecycle.EvaluateGates(models.ScheduleStatusCancelled, lifecycle.GateInputs{})
	assert.Contains(t, violations, lifecycle.ViolationMissingCancelReason)

	violations = lifecycle.EvaluateGates(models.ScheduleStatusCancelled, lifecycle.GateInputs{CancelReason: "kitchen flooded"})
	assert.Empty(t, violations)
}
