package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"volunteer_platform/internal/domain"
	"volunteer_platform/pkg/logger"
)

type StatsRepository interface {
	GetUserStats(ctx context.Context, userID int64) (*domain.MessagingStats, error)
	GetPlatformStats(ctx context.Context) (*domain.PlatformStats, error)
}

type statsRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewStatsRepository(db *pgxpool.Pool, log logger.Logger) StatsRepository {
	return &statsRepository{db: db, log: log}
}

func (r *statsRepository) GetUserStats(ctx context.Context, userID int64) (*domain.MessagingStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE sender_id = $1),
			COUNT(*) FILTER (WHERE receiver_id = $1),
			COUNT(*) FILTER (WHERE receiver_id = $1 AND read_at IS NULL),
			COUNT(DISTINCT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END)
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
	`

	stats := &domain.MessagingStats{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.Sent, &stats.Received, &stats.Unread, &stats.Conversations,
	)
	if err != nil {
		r.log.Error("Failed to get user stats", "error", err, "user_id", userID)
		return nil, err
	}

	return stats, nil
}

func (r *statsRepository) GetPlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			COUNT(*),
			COUNT(*) FILTER (WHERE delivered_at IS NULL),
			COUNT(*) FILTER (WHERE read_at IS NULL)
		FROM messages
	`

	stats := &domain.PlatformStats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Users, &stats.Messages, &stats.UndeliveredCount, &stats.UnreadCount,
	)
	if err != nil {
		r.log.Error("Failed to get platform stats", "error", err)
		return nil, err
	}

	return stats, nil
}
