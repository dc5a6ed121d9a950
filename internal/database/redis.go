package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/config"
)

// NewRedisClient connects to Redis and verifies the connection. Redis backs
// the isochrone response cache; a failure here is fatal at startup so a
// misconfigured cache surfaces immediately rather than as per-request misses.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}
