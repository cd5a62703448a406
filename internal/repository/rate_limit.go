package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"volunteer_platform/pkg/logger"
)

// RateLimitRepository counts hits in fixed windows.
type RateLimitRepository interface {
	// Hit records one hit on key and returns the number of hits in the current window.
	// The window opens with the first hit.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

// Hit needs Redis 7 for EXPIRE NX.
func (r *rateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var count *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		r.log.Error("Failed to count rate limit hit", "error", err, "key", key)
		return 0, fmt.Errorf("rate limit hit %s: %w", key, err)
	}

	return count.Val(), nil
}
