package service

import (
	"context"
	"fmt"

	"volunteer_platform/internal/domain"
	apperrors "volunteer_platform/pkg/errors"
)

// MarkConversationRead marks everything peerID sent to viewerID as read.
// The peer is told even when nothing changed, and the viewer's unread total is always pushed.
// Messages that were still undelivered are announced as delivered before the read receipt.
func (s *chatService) MarkConversationRead(ctx context.Context, viewerID, peerID int64) ([]int64, error) {
	if peerID <= 0 || peerID == viewerID {
		return nil, apperrors.ErrInvalidPeer
	}

	at := s.now()
	result, err := s.messages.MarkRead(ctx, viewerID, peerID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to mark read: %w", err)
	}
	ids := result.MessageIDs
	if ids == nil {
		ids = []int64{}
	}

	s.announceDeliveries(ctx, result.Delivered)

	s.notify(ctx, peerID, domain.EventMessageRead, domain.ReadEvent{
		MessageIDs: ids,
		ReadAt:     at,
		ReaderID:   viewerID,
	})

	if err := s.PushUnreadCount(ctx, viewerID); err != nil {
		s.log.Warn("Failed to push unread count", "error", err, "user_id", viewerID)
	}

	return ids, nil
}
