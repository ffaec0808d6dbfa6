package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// StatsCache is a read-through cache for the schedule statistics dashboard
// aggregate. The aggregate is recomputed from raw rows on every miss;
// transitions invalidate the tenant's entry. A nil cache disables caching.
type StatsCache struct {
	client *Client
	ttl    time.Duration
}

func NewStatsCache(client *Client, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
	}
}

func statsKey(tenantID string) string {
	return fmt.Sprintf("fern:stats:schedules:%s", tenantID)
}

// Get returns the cached aggregate, or nil on miss or error
func (c *StatsCache) Get(ctx context.Context, tenantID string) *models.ScheduleStatistics {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, statsKey(tenantID))
	if err != nil {
		if !IsNil(err) {
			c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to read schedule statistics cache")
		}
		return nil
	}

	var stats models.ScheduleStatistics
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil
	}
	return &stats
}

// Put stores the aggregate with the configured TTL. Failures are logged and
// swallowed; the cache is never authoritative.
func (c *StatsCache) Put(ctx context.Context, tenantID string, stats *models.ScheduleStatistics) {
	if c == nil || c.client == nil || stats == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, statsKey(tenantID), string(raw), c.ttl); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to write schedule statistics cache")
	}
}

// Invalidate drops the tenant's entry after a status transition
func (c *StatsCache) Invalidate(ctx context.Context, tenantID string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, statsKey(tenantID)); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate schedule statistics cache")
	}
}
