package service

import (
	"context"
	"fmt"

	"volunteer_platform/internal/domain"
)

func (s *chatService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	total, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return total, nil
}

// PushUnreadCount recomputes the total from stored rows and pushes it to the user.
func (s *chatService) PushUnreadCount(ctx context.Context, userID int64) error {
	total, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return err
	}

	s.notify(ctx, userID, domain.EventUnreadCount, domain.UnreadCountEvent{Total: total})
	return nil
}
