package faults

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "not found",
			err:      NotFound("schedule", "sched-1"),
			expected: CodeNotFound,
		},
		{
			name:     "invalid transition",
			err:      InvalidTransition("planned", "completed", []string{"prepared", "cancelled"}),
			expected: CodeInvalidTransition,
		},
		{
			name:     "gate violation",
			err:      GateViolations("in_progress", []string{"no vehicle assigned"}),
			expected: CodeGateViolation,
		},
		{
			name:     "vehicle conflict",
			err:      VehicleConflict("veh-1", "sched-2"),
			expected: CodeVehicleConflict,
		},
		{
			name:     "duplicate assignment",
			err:      DuplicateAssignment("veh-1", "sched-1"),
			expected: CodeDuplicateAssignment,
		},
		{
			name:     "inactive vehicle",
			err:      InactiveVehicle("veh-1"),
			expected: CodeInactiveVehicle,
		},
		{
			name:     "tracking not allowed",
			err:      TrackingNotAllowed("schedule is not in progress"),
			expected: CodeTrackingNotAllowed,
		},
		{
			name:     "already resolved",
			err:      AlreadyResolved("issue-1"),
			expected: CodeAlreadyResolved,
		},
		{
			name:     "concurrent modification",
			err:      ConcurrentModification("schedule", "sched-1"),
			expected: CodeConcurrentModification,
		},
		{
			name:     "immutable record",
			err:      ImmutableRecord("schedule is no longer editable"),
			expected: CodeImmutableRecord,
		},
		{
			name:     "storage failure",
			err:      Storage("create schedule"),
			expected: CodeStorageFailure,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "plain error",
			err:      errors.New("something broke"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Code(tt.err))
		})
	}
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(NotFound("delivery", "del-1")))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(InvalidTransition("planned", "completed", nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(GateViolations("in_progress", nil)))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(VehicleConflict("veh-1", "sched-2")))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(ConcurrentModification("issue", "issue-1")))
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(Storage("update delivery")))
}

func TestInvalidTransitionMeta(t *testing.T) {
	err := InvalidTransition("planned", "completed", []string{"prepared", "cancelled"})

	assert.Equal(t, "planned", err.Meta["current_status"])
	assert.Equal(t, "completed", err.Meta["requested_status"])
	assert.Equal(t, []string{"prepared", "cancelled"}, err.Meta["allowed_targets"])
	assert.Contains(t, err.Error(), "cannot transition from planned to completed")
}

func TestGateViolationsMessageCountsViolations(t *testing.T) {
	err := GateViolations("in_progress", []string{"no vehicle assigned", "no deliveries"})

	assert.Contains(t, err.Error(), "2 unmet precondition(s)")
	assert.Equal(t, []string{"no vehicle assigned", "no deliveries"}, err.Meta["violations"])
}
