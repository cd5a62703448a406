package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"volunteer_platform/internal/config"
	"volunteer_platform/pkg/logger"
)

type Repositories struct {
	User          UserRepository
	Session       SessionRepository
	Message       MessageRepository
	IdentityCache IdentityCache
	Stats         StatsRepository
	Audit         AuditRepository
	RateLimit     RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, cfg config.ChatConfig, log logger.Logger) (*Repositories, error) {
	var identityCache IdentityCache
	switch cfg.IdentityCacheBackend {
	case "redis":
		identityCache = NewRedisIdentityCache(redis, cfg.IdentityCacheTTL, log)
	default:
		cache, err := NewMemoryIdentityCache(cfg.IdentityCacheSize, cfg.IdentityCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("identity cache: %w", err)
		}
		identityCache = cache
	}
	log.Info("Identity cache initialized", "backend", cfg.IdentityCacheBackend)

	return &Repositories{
		User:          NewUserRepository(db, log),
		Session:       NewSessionRepository(db, log),
		Message:       NewMessageRepository(db, log),
		IdentityCache: identityCache,
		Stats:         NewStatsRepository(db, log),
		Audit:         NewAuditRepository(db, log),
		RateLimit:     NewRateLimitRepository(redis, log),
	}, nil
}
