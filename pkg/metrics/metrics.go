// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScheduleTransitionsTotal tracks schedule status transitions by outcome
	ScheduleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "schedule",
			Name:      "transitions_total",
			Help:      "Total number of schedule status transition attempts by target and outcome",
		},
		[]string{"tenant_id", "target_status", "outcome"},
	)

	// AssignmentConflictsTotal tracks rejected vehicle assignments
	AssignmentConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "assignment",
			Name:      "conflicts_total",
			Help:      "Total number of vehicle assignment attempts rejected for conflicts",
		},
		[]string{"tenant_id", "reason"},
	)

	// TrackingPointsTotal tracks ingested GPS observations
	TrackingPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "tracking",
			Name:      "points_total",
			Help:      "Total number of tracking points ingested",
		},
		[]string{"tenant_id", "source"},
	)

	// IssuesReportedTotal tracks reported incidents by severity
	IssuesReportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "issues",
			Name:      "reported_total",
			Help:      "Total number of operational issues reported by severity",
		},
		[]string{"tenant_id", "severity"},
	)

	// TransitionDuration tracks end-to-end transition latency
	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "schedule",
			Name:      "transition_duration_seconds",
			Help:      "Duration of schedule transition operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"target_status"},
	)
)
