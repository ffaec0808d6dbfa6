package faults

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Stable machine-readable codes carried in the error meta so API clients can
// branch on failure kind without parsing messages.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeGateViolation          = "GATE_VIOLATION"
	CodeVehicleConflict        = "VEHICLE_CONFLICT"
	CodeDuplicateAssignment    = "DUPLICATE_ASSIGNMENT"
	CodeInactiveVehicle        = "INACTIVE_VEHICLE"
	CodeTrackingNotAllowed     = "TRACKING_NOT_ALLOWED"
	CodeAlreadyResolved        = "ALREADY_RESOLVED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeImmutableRecord        = "IMMUTABLE_RECORD"
	CodeStorageFailure         = "STORAGE_FAILURE"
)

// NotFound covers records that do not exist or belong to another tenant.
func NotFound(kind, id string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id)).
		AddMetaValue("code", CodeNotFound)
}

// InvalidTransition reports a status change that is not in the transition
// table, echoing the allowed targets back to the caller.
func InvalidTransition(current, requested string, allowed []string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot transition from %s to %s", current, requested)).
		AddMetaValue("code", CodeInvalidTransition).
		AddMetaValue("current_status", current).
		AddMetaValue("requested_status", requested).
		AddMetaValue("allowed_targets", allowed)
}

// GateViolations reports every unmet transition precondition at once.
func GateViolations(target string, violations []string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("transition to %s blocked by %d unmet precondition(s)", target, len(violations))).
		AddMetaValue("code", CodeGateViolation).
		AddMetaValue("requested_status", target).
		AddMetaValue("violations", violations)
}

// VehicleConflict reports a vehicle already booked on another live schedule
// for the same distribution date and wave.
func VehicleConflict(vehicleID, conflictingScheduleID string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("vehicle %s is already assigned to schedule %s for this date and wave", vehicleID, conflictingScheduleID)).
		AddMetaValue("code", CodeVehicleConflict).
		AddMetaValue("vehicle_id", vehicleID).
		AddMetaValue("conflicting_schedule_id", conflictingScheduleID)
}

// DuplicateAssignment reports a vehicle already attached to the same schedule.
func DuplicateAssignment(vehicleID, scheduleID string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("vehicle %s is already assigned to schedule %s", vehicleID, scheduleID)).
		AddMetaValue("code", CodeDuplicateAssignment).
		AddMetaValue("vehicle_id", vehicleID).
		AddMetaValue("schedule_id", scheduleID)
}

// InactiveVehicle rejects booking a vehicle that is registered but pulled
// from service.
func InactiveVehicle(vehicleID string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("vehicle %s is inactive and cannot be assigned", vehicleID)).
		AddMetaValue("code", CodeInactiveVehicle).
		AddMetaValue("vehicle_id", vehicleID)
}

// TrackingNotAllowed reports a location push against a delivery or schedule
// that is not in an active-tracking state.
func TrackingNotAllowed(reason string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, reason).
		AddMetaValue("code", CodeTrackingNotAllowed)
}

// AlreadyResolved guards the one-way issue resolution transition.
func AlreadyResolved(issueID string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("issue %s is already resolved", issueID)).
		AddMetaValue("code", CodeAlreadyResolved).
		AddMetaValue("issue_id", issueID)
}

// ConcurrentModification reports a lost optimistic-concurrency race; the
// caller should re-read and retry or surface the new state.
func ConcurrentModification(kind, id string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("%s %s was modified by another request", kind, id)).
		AddMetaValue("code", CodeConcurrentModification)
}

// ImmutableRecord reports an edit against a record that has left its
// editable states.
func ImmutableRecord(reason string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, reason).
		AddMetaValue("code", CodeImmutableRecord)
}

// Storage wraps a store-level failure; the operation was aborted with no
// partial write and retry policy belongs to the caller.
func Storage(action string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to %s", action)).
		AddMetaValue("code", CodeStorageFailure)
}

// Code extracts the failure code from an error, or "" when not a fault.
func Code(err error) string {
	if err == nil || !httperror.IsHTTPError(err) {
		return ""
	}
	he := httperror.ToHTTPError(err)
	if he == nil || he.Meta == nil {
		return ""
	}
	code, _ := he.Meta["code"].(string)
	return code
}
