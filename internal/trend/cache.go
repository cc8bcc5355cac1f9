// internal/trend/cache.go
package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/common/metrics"
	"coaching-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed trend analyses in Redis. Single-rep entries are
// validated by call count on read; aggregate entries expire on a TTL because
// counting across many reps on every read is too expensive for the short
// acceptable staleness window. All writes are best-effort: a failed write is
// logged and swallowed, the freshly computed result has already been produced.
type Cache struct {
	client       *redis.Client
	aggregateTTL time.Duration
	logger       logger.Logger
}

func NewCache(client *redis.Client, aggregateTTL time.Duration, log logger.Logger) *Cache {
	if aggregateTTL <= 0 {
		aggregateTTL = 5 * time.Minute
	}
	return &Cache{
		client:       client,
		aggregateTTL: aggregateTTL,
		logger:       log,
	}
}

func repKey(repID string, dr models.DateRange) string {
	return fmt.Sprintf("trend:rep:%s:%s:%s",
		repID, dr.From.Format("2006-01-02"), dr.To.Format("2006-01-02"))
}

func aggregateKey(scope, teamID string, dr models.DateRange) string {
	return fmt.Sprintf("trend:%s:%s:%s:%s",
		scope, teamID, dr.From.Format("2006-01-02"), dr.To.Format("2006-01-02"))
}

// GetRep returns the cached analysis for a rep/range if the stored call count
// matches the live count. A count mismatch is a miss: the record set changed
// since computation. Read failures degrade to a miss.
func (c *Cache) GetRep(ctx context.Context, repID string, dr models.DateRange, liveCount int) (*models.CacheEntry, bool) {
	key := repKey(repID, dr)

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("trend cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.CacheEvents.WithLabelValues("rep", "miss").Inc()
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("trend cache entry corrupt", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.CacheEvents.WithLabelValues("rep", "miss").Inc()
		return nil, false
	}

	if entry.CallCount != liveCount {
		metrics.CacheEvents.WithLabelValues("rep", "stale").Inc()
		return nil, false
	}

	metrics.CacheEvents.WithLabelValues("rep", "hit").Inc()
	return &entry, true
}

// SetRep upserts a rep entry. No TTL: the call count comparison governs
// freshness.
func (c *Cache) SetRep(ctx context.Context, repID string, dr models.DateRange, entry models.CacheEntry) {
	c.write(ctx, repKey(repID, dr), "rep", entry, 0)
}

// AggregateEntry is the cached payload for team/organization runs. The full
// metadata rides along so a TTL hit can return contributions without
// recomputing them.
type AggregateEntry struct {
	Analysis   *models.TrendAnalysis   `json:"analysis"`
	Metadata   models.AggregateMetadata `json:"metadata"`
	ComputedAt time.Time               `json:"computedAt"`
}

// GetAggregate returns a live aggregate entry, if any.
func (c *Cache) GetAggregate(ctx context.Context, scope, teamID string, dr models.DateRange) (*AggregateEntry, bool) {
	key := aggregateKey(scope, teamID, dr)

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("trend cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.CacheEvents.WithLabelValues(scope, "miss").Inc()
		return nil, false
	}

	var entry AggregateEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("trend cache entry corrupt", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.CacheEvents.WithLabelValues(scope, "miss").Inc()
		return nil, false
	}

	metrics.CacheEvents.WithLabelValues(scope, "hit").Inc()
	return &entry, true
}

// SetAggregate upserts an aggregate entry under the configured TTL.
func (c *Cache) SetAggregate(ctx context.Context, scope, teamID string, dr models.DateRange, entry AggregateEntry) {
	c.write(ctx, aggregateKey(scope, teamID, dr), scope, entry, c.aggregateTTL)
}

func (c *Cache) write(ctx context.Context, key, scope string, entry interface{}, ttl time.Duration) {
	payload, err := json.Marshal(entry)
	if err == nil {
		err = c.client.Set(ctx, key, payload, ttl).Err()
	}
	if err != nil {
		c.logger.Warn("trend cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.CacheEvents.WithLabelValues(scope, "error").Inc()
		return
	}
	metrics.CacheEvents.WithLabelValues(scope, "write").Inc()
}
