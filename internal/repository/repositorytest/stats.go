package repositorytest

import (
	"context"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
)

// StatsStore derives statistics from the in-memory message and user stores.
type StatsStore struct {
	Messages *MessageStore
	Users    *UserStore
}

var _ repository.StatsRepository = (*StatsStore)(nil)

func (s *StatsStore) GetUserStats(_ context.Context, userID int64) (*domain.MessagingStats, error) {
	stats := &domain.MessagingStats{UserID: userID}
	peers := make(map[int64]struct{})
	for _, m := range s.Messages.All() {
		if !m.Involves(userID) {
			continue
		}
		peers[m.PeerOf(userID)] = struct{}{}
		if m.SenderID == userID {
			stats.Sent++
			continue
		}
		stats.Received++
		if m.ReadAt == nil {
			stats.Unread++
		}
	}
	stats.Conversations = int64(len(peers))
	return stats, nil
}

func (s *StatsStore) GetPlatformStats(_ context.Context) (*domain.PlatformStats, error) {
	stats := &domain.PlatformStats{Users: int64(s.Users.Len())}
	for _, m := range s.Messages.All() {
		stats.Messages++
		if m.DeliveredAt == nil {
			stats.UndeliveredCount++
		}
		if m.ReadAt == nil {
			stats.UnreadCount++
		}
	}
	return stats, nil
}
