package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/delivery"
	"github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/internal/repositories/trackingpoint"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/foodsafety"
	"github.com/Ramsey-B/fern/pkg/geo"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/lifecycle"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service tracks delivery execution: leg creation, status progression,
// temperature readings, and the GPS trail.
type Service struct {
	deliveryRepo *delivery.Repository
	scheduleRepo *schedule.Repository
	trackingRepo *trackingpoint.Repository
	producer     *kafka.Producer
	logger       ectologger.Logger
}

// NewService creates a new tracker service
func NewService(
	deliveryRepo *delivery.Repository,
	scheduleRepo *schedule.Repository,
	trackingRepo *trackingpoint.Repository,
	producer *kafka.Producer,
	logger ectologger.Logger,
) *Service {
	return &Service{
		deliveryRepo: deliveryRepo,
		scheduleRepo: scheduleRepo,
		trackingRepo: trackingRepo,
		producer:     producer,
		logger:       logger,
	}
}

// CreateDelivery adds a delivery leg to a schedule. Legs may be added up
// until the schedule reaches a terminal status.
func (s *Service) CreateDelivery(ctx context.Context, tenantID string, scheduleID string, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.CreateDelivery")
	defer span.End()

	sched, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status.IsTerminal() {
		return nil, faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s; deliveries can no longer be added", scheduleID, sched.Status))
	}

	del := &models.Delivery{
		TenantID:         tenantID,
		ScheduleID:       scheduleID,
		TargetType:       req.TargetType,
		TargetName:       req.TargetName,
		TargetAddress:    req.TargetAddress,
		EstimatedArrival: req.EstimatedArrival,
		PortionsPlanned:  req.PortionsPlanned,
		DriverName:       req.DriverName,
		HelperNames:      req.HelperNames,
		FoodType:         req.FoodType,
	}

	return s.deliveryRepo.Create(ctx, del)
}

// GetDelivery retrieves a delivery by ID
func (s *Service) GetDelivery(ctx context.Context, tenantID string, id string) (*models.Delivery, error) {
	return s.deliveryRepo.Get(ctx, tenantID, id)
}

// ListDeliveries retrieves a schedule's delivery legs
func (s *Service) ListDeliveries(ctx context.Context, tenantID string, scheduleID string) ([]models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.ListDeliveries")
	defer span.End()

	if _, err := s.scheduleRepo.Get(ctx, tenantID, scheduleID); err != nil {
		return nil, err
	}
	return s.deliveryRepo.ListBySchedule(ctx, tenantID, scheduleID)
}

// UpdateStatus advances a delivery leg. Legs only move while their schedule
// is executing; DELIVERED additionally requires the delivered portion count.
func (s *Service) UpdateStatus(ctx context.Context, tenantID string, id string, req models.UpdateDeliveryStatusRequest) (*models.Delivery, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.UpdateStatus")
	defer span.End()

	del, err := s.deliveryRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return s.applyStatus(ctx, del, req)
}

func (s *Service) applyStatus(ctx context.Context, del *models.Delivery, req models.UpdateDeliveryStatusRequest) (*models.Delivery, error) {
	sched, err := s.scheduleRepo.Get(ctx, del.TenantID, del.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != models.ScheduleStatusInProgress {
		return nil, faults.ImmutableRecord(fmt.Sprintf("schedule %s is %s; delivery statuses only change during execution", del.ScheduleID, sched.Status))
	}

	target := req.Status
	if !target.IsValid() || !lifecycle.CanTransitionDelivery(del.Status, target) {
		allowed := lifecycle.AllowedDeliveryTargets(del.Status)
		targets := make([]string, len(allowed))
		for i, t := range allowed {
			targets[i] = string(t)
		}
		return nil, faults.InvalidTransition(string(del.Status), string(target), targets)
	}

	update := delivery.StatusUpdate{}
	if target == models.DeliveryStatusDelivered {
		if req.PortionsDelivered == nil {
			return nil, faults.GateViolations(string(target), []string{"portions_delivered is required when marking a delivery delivered"})
		}
		if *req.PortionsDelivered < 0 || *req.PortionsDelivered > del.PortionsPlanned {
			return nil, faults.GateViolations(string(target), []string{fmt.Sprintf("portions_delivered must be between 0 and the %d planned", del.PortionsPlanned)})
		}
		update.PortionsDelivered = req.PortionsDelivered

		arrival := time.Now().UTC()
		if req.ActualArrival != nil {
			arrival = req.ActualArrival.UTC()
		}
		update.ActualArrival = &arrival
	}

	ok, err := s.deliveryRepo.UpdateStatus(ctx, del.TenantID, del.ID, del.Status, target, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.ConcurrentModification("delivery", del.ID)
	}

	if s.producer != nil {
		event := &kafka.DeliveryEvent{
			EventType:  "delivery.status_changed",
			TenantID:   del.TenantID,
			DeliveryID: del.ID,
			ScheduleID: del.ScheduleID,
			FromStatus: string(del.Status),
			ToStatus:   string(target),
		}
		if err := s.producer.PublishDeliveryEvent(ctx, event); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to publish delivery event")
		}
	}

	return s.deliveryRepo.Get(ctx, del.TenantID, del.ID)
}

// TemperatureReading is one recorded reading plus its safety classification
type TemperatureReading struct {
	Delivery       *models.Delivery          `json:"delivery"`
	Stage          string                    `json:"stage"`
	TemperatureC   float64                   `json:"temperature_c"`
	Classification foodsafety.Classification `json:"classification"`
}

// RecordTemperature attaches a temperature reading to a delivery stage and
// classifies it against the food type's safety bands.
func (s *Service) RecordTemperature(ctx context.Context, tenantID string, id string, req models.RecordTemperatureRequest) (*TemperatureReading, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.RecordTemperature")
	defer span.End()

	del, err := s.deliveryRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	tempC := *req.TemperatureC
	if err := s.deliveryRepo.UpdateTemperature(ctx, tenantID, id, req.Stage, tempC); err != nil {
		return nil, err
	}

	classification := foodsafety.Classify(tempC, del.FoodType)
	if classification == foodsafety.ClassificationDanger {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"delivery_id":   id,
			"stage":         req.Stage,
			"temperature_c": tempC,
			"food_type":     del.FoodType,
		}).Warn("Temperature reading in danger band")
	}

	updated, err := s.deliveryRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return &TemperatureReading{
		Delivery:       updated,
		Stage:          req.Stage,
		TemperatureC:   tempC,
		Classification: classification,
	}, nil
}

// RecordLocation ingests one GPS observation. Tracking only runs while the
// schedule is executing and the leg is on the road (or just delivered); the
// ping may also carry a status to advance the leg in the same call.
func (s *Service) RecordLocation(ctx context.Context, tenantID string, id string, req models.RecordLocationRequest, source string) (*models.TrackingPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.RecordLocation")
	defer span.End()

	del, err := s.deliveryRepo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sched, err := s.scheduleRepo.Get(ctx, tenantID, del.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != models.ScheduleStatusInProgress {
		return nil, faults.TrackingNotAllowed(fmt.Sprintf("schedule %s is %s; tracking only runs during execution", del.ScheduleID, sched.Status))
	}

	if req.Status != nil && *req.Status != del.Status {
		updated, err := s.applyStatus(ctx, del, models.UpdateDeliveryStatusRequest{Status: *req.Status})
		if err != nil {
			return nil, err
		}
		del = updated
	}

	if del.Status != models.DeliveryStatusDeparted && del.Status != models.DeliveryStatusDelivered {
		return nil, faults.TrackingNotAllowed(fmt.Sprintf("delivery %s is %s; tracking requires a departed or delivered leg", id, del.Status))
	}

	point := &models.TrackingPoint{
		TenantID:   tenantID,
		DeliveryID: id,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		AccuracyM:  req.AccuracyM,
		Note:       req.Note,
	}
	if req.RecordedAt != nil {
		point.RecordedAt = req.RecordedAt.UTC()
	}
	if req.Status != nil {
		label := string(*req.Status)
		point.StatusLabel = &label
	}

	created, err := s.trackingRepo.Create(ctx, point)
	if err != nil {
		return nil, err
	}

	if err := s.deliveryRepo.UpdatePosition(ctx, tenantID, id, req.Latitude, req.Longitude); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to update delivery position")
	}

	metrics.TrackingPointsTotal.WithLabelValues(tenantID, source).Inc()
	return created, nil
}

// GetTrackingHistory retrieves a delivery's trail with read-side aggregates.
// Distance is recomputed from the points on every read so late-arriving
// observations change the total without any backfill step.
func (s *Service) GetTrackingHistory(ctx context.Context, tenantID string, id string) (*models.TrackingHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Service.GetTrackingHistory")
	defer span.End()

	if _, err := s.deliveryRepo.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}

	points, err := s.trackingRepo.ListByDelivery(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return &models.TrackingHistory{
		Points:          points,
		PointCount:      len(points),
		TotalDistanceKm: geo.TotalDistanceKm(points),
		LatestPoint:     geo.LatestPoint(points),
	}, nil
}
