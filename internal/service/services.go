package service

import (
	"volunteer_platform/internal/config"
	"volunteer_platform/internal/repository"
	"volunteer_platform/pkg/logger"
)

type Services struct {
	Auth      AuthService
	User      UserService
	Chat      ChatService
	Identity  IdentityResolver
	Stats     StatsService
	RateLimit RateLimitService
	Audit     AuditService
}

// Realtime is the live delivery side the services push through.
type Realtime interface {
	Notifier
	Presence
}

func NewServices(repos *repository.Repositories, rt Realtime, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	rateLimit := NewRateLimitService(repos.RateLimit, log)
	identity := NewIdentityResolver(repos.User, repos.IdentityCache, log)

	return &Services{
		Auth:      NewAuthService(repos.User, repos.Session, audit, cfg.JWT, log),
		User:      NewUserService(repos.User, repos.IdentityCache, log),
		Chat:      NewChatService(repos.Message, identity, rt, rt, rateLimit, audit, cfg.Chat, log),
		Identity:  identity,
		Stats:     NewStatsService(repos.Stats, rt, log),
		RateLimit: rateLimit,
		Audit:     audit,
	}
}
