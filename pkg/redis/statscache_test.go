package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestStatsCacheNilSafe(t *testing.T) {
	ctx := context.Background()
	stats := &models.ScheduleStatistics{Today: 3}

	var nilCache *StatsCache
	assert.Nil(t, nilCache.Get(ctx, "tenant-1"))
	nilCache.Put(ctx, "tenant-1", stats)
	nilCache.Invalidate(ctx, "tenant-1")

	// Enabled flag off means no client; every call is a no-op.
	disabled := NewStatsCache(nil, 30*time.Second)
	assert.Nil(t, disabled.Get(ctx, "tenant-1"))
	disabled.Put(ctx, "tenant-1", stats)
	disabled.Invalidate(ctx, "tenant-1")
}

func TestStatsKeyIsTenantScoped(t *testing.T) {
	assert.Equal(t, "fern:stats:schedules:tenant-1", statsKey("tenant-1"))
	assert.NotEqual(t, statsKey("tenant-1"), statsKey("tenant-2"))
}
