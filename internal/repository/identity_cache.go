//go:generate go run go.uber.org/mock/mockgen -source=identity_cache.go -destination=../mocks/mock_identity_cache.go -package=mocks

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"

	"volunteer_platform/internal/domain"
	"volunteer_platform/pkg/logger"
)

// IdentityCache holds peer display identities in front of the users table.
// Lookup failures are reported as misses.
type IdentityCache interface {
	GetMany(ctx context.Context, ids []int64) map[int64]domain.Identity
	SetMany(ctx context.Context, identities []domain.Identity)
}

const identityKeyPrefix = "identity:%d"

type memoryIdentityCache struct {
	cache *ristretto.Cache[int64, domain.Identity]
	ttl   time.Duration
}

// NewMemoryIdentityCache keeps at most capacity identities in process.
func NewMemoryIdentityCache(capacity int, ttl time.Duration) (IdentityCache, error) {
	if capacity <= 0 {
		capacity = 1024
	}

	cache, err := ristretto.NewCache(&ristretto.Config[int64, domain.Identity]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create identity cache: %w", err)
	}

	return &memoryIdentityCache{cache: cache, ttl: ttl}, nil
}

func (c *memoryIdentityCache) GetMany(_ context.Context, ids []int64) map[int64]domain.Identity {
	found := make(map[int64]domain.Identity, len(ids))
	for _, id := range ids {
		if identity, ok := c.cache.Get(id); ok {
			found[id] = identity
		}
	}
	return found
}

func (c *memoryIdentityCache) SetMany(_ context.Context, identities []domain.Identity) {
	for _, identity := range identities {
		c.cache.SetWithTTL(identity.ID, identity, 1, c.ttl)
	}
	c.cache.Wait()
}

type redisIdentityCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

func NewRedisIdentityCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) IdentityCache {
	return &redisIdentityCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *redisIdentityCache) GetMany(ctx context.Context, ids []int64) map[int64]domain.Identity {
	found := make(map[int64]domain.Identity, len(ids))
	if len(ids) == 0 {
		return found
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(identityKeyPrefix, id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("Failed to read identity cache", "error", err)
		return found
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var identity domain.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			c.log.Warn("Failed to unmarshal cached identity", "error", err, "key", keys[i])
			continue
		}
		found[ids[i]] = identity
	}

	return found
}

func (c *redisIdentityCache) SetMany(ctx context.Context, identities []domain.Identity) {
	if len(identities) == 0 {
		return
	}

	pipe := c.rdb.Pipeline()
	for _, identity := range identities {
		data, err := json.Marshal(identity)
		if err != nil {
			c.log.Warn("Failed to marshal identity", "error", err, "user_id", identity.ID)
			continue
		}
		pipe.Set(ctx, fmt.Sprintf(identityKeyPrefix, identity.ID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("Failed to write identity cache", "error", err)
	}
}
