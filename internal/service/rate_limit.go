package service

import (
	"context"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	"volunteer_platform/pkg/logger"
)

type RateLimitService interface {
	// Allow counts one hit against rule for subject and reports whether it fits, plus the hits left.
	Allow(ctx context.Context, rule domain.RateLimitRule, subject string) (bool, int, error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, rule domain.RateLimitRule, subject string) (bool, int, error) {
	key := rule.Key(subject)

	hits, err := s.rateLimitRepo.Hit(ctx, key, rule.Window)
	if err != nil {
		return false, 0, err
	}

	if hits > int64(rule.Limit) {
		s.log.Debug("Rate limit exceeded", "key", key, "hits", hits)
		return false, 0, nil
	}
	return true, rule.Limit - int(hits), nil
}
