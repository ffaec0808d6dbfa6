package stats

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service serves the dashboard aggregates, read-through cached in Redis.
// Writers invalidate the tenant's entry, so a short TTL only bounds
// staleness after a missed invalidation.
type Service struct {
	scheduleRepo *schedule.Repository
	cache        *redis.StatsCache
	logger       ectologger.Logger
}

// NewService creates a new statistics service
func NewService(scheduleRepo *schedule.Repository, cache *redis.StatsCache, logger ectologger.Logger) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		cache:        cache,
		logger:       logger,
	}
}

// ScheduleStatistics computes the schedule dashboard aggregate
func (s *Service) ScheduleStatistics(ctx context.Context, tenantID string) (*models.ScheduleStatistics, error) {
	ctx, span := tracing.StartSpan(ctx, "stats.Service.ScheduleStatistics")
	defer span.End()

	if cached := s.cache.Get(ctx, tenantID); cached != nil {
		return cached, nil
	}

	computed, err := s.scheduleRepo.Statistics(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.cache.Put(ctx, tenantID, computed)
	return computed, nil
}
