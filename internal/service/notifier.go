//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=../mocks/mock_notifier.go -package=mocks

package service

import (
	"context"
)

// Notifier pushes a live event to every connection of a user.
// Delivery is best-effort: an error means the push was lost, never that state changed.
type Notifier interface {
	Notify(ctx context.Context, userID int64, eventType string, payload any) error
}

// Presence answers whether a user has a live connection on this instance.
type Presence interface {
	IsOnline(userID int64) bool
	OnlineCount() int
	// RequestDelivery asks other instances to confirm delivery of messageID if receiverID is connected there.
	RequestDelivery(ctx context.Context, receiverID, messageID int64) error
}

// notify sends an event and swallows the error after logging it.
func (s *chatService) notify(ctx context.Context, userID int64, eventType string, payload any) {
	if err := s.notifier.Notify(ctx, userID, eventType, payload); err != nil {
		s.log.Warn("Failed to push live event", "error", err, "user_id", userID, "event", eventType)
	}
}
