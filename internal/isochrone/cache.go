package isochrone

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
)

// Cache decorates a Provider with a Redis cache keyed on (origin, minutes).
// Cache failures degrade to the inner provider; a broken Redis never breaks a
// feasibility analysis.
type Cache struct {
	inner   Provider
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewCache creates a cache decorator around a provider.
func NewCache(inner Provider, client *redis.Client, ttl time.Duration, metrics *observability.Metrics, log *logger.Logger) *Cache {
	return &Cache{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		metrics: metrics,
		log:     log,
	}
}

// Isochrone returns the cached polygon when present, otherwise resolves it
// through the inner provider and stores the result.
func (c *Cache) Isochrone(ctx context.Context, origin models.Point, minutes int) (*models.Isochrone, error) {
	key := cacheKey(origin, minutes)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var iso models.Isochrone
		if err := json.Unmarshal(cached, &iso); err == nil {
			c.metrics.IsochroneCache.WithLabelValues("hit").Inc()
			return &iso, nil
		}
		// Unreadable entries are treated as misses and overwritten below.
	} else if err != redis.Nil {
		c.log.Warn("isochrone cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	c.metrics.IsochroneCache.WithLabelValues("miss").Inc()

	iso, err := c.inner.Isochrone(ctx, origin, minutes)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(iso); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("isochrone cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return iso, nil
}

func cacheKey(origin models.Point, minutes int) string {
	return fmt.Sprintf("isochrone:%.6f:%.6f:%d", origin.Lat, origin.Lng, minutes)
}
