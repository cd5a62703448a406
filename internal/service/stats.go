package service

import (
	"context"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	"volunteer_platform/pkg/logger"
)

type StatsService interface {
	GetUserStats(ctx context.Context, userID int64) (*domain.MessagingStats, error)
	GetPlatformStats(ctx context.Context) (*domain.PlatformStats, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
	presence  Presence
	log       logger.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, presence Presence, log logger.Logger) StatsService {
	return &statsService{
		statsRepo: statsRepo,
		presence:  presence,
		log:       log,
	}
}

func (s *statsService) GetUserStats(ctx context.Context, userID int64) (*domain.MessagingStats, error) {
	return s.statsRepo.GetUserStats(ctx, userID)
}

func (s *statsService) GetPlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	stats, err := s.statsRepo.GetPlatformStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.presence != nil {
		stats.OnlineUsers = s.presence.OnlineCount()
	}
	return stats, nil
}
