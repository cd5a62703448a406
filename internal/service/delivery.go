package service

import (
	"context"
	"fmt"

	"volunteer_platform/internal/domain"
)

func (s *chatService) Connect(ctx context.Context, userID int64) error {
	if _, err := s.MarkDelivered(ctx, userID); err != nil {
		s.log.Error("Failed to mark backlog delivered", "error", err, "user_id", userID)
	}
	return s.PushUnreadCount(ctx, userID)
}

// MarkDelivered flips every undelivered message addressed to receiverID and tells each sender.
// A second call finds nothing left to flip and stays silent.
func (s *chatService) MarkDelivered(ctx context.Context, receiverID int64) ([]domain.Delivery, error) {
	deliveries, err := s.messages.MarkDelivered(ctx, receiverID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark delivered: %w", err)
	}

	s.announceDeliveries(ctx, deliveries)
	return deliveries, nil
}

// ConfirmDelivery marks one message delivered after another instance relayed it to a
// connection of receiverID. It is a no-op when the message is already delivered.
func (s *chatService) ConfirmDelivery(ctx context.Context, receiverID, messageID int64) {
	deliveries, err := s.messages.MarkDeliveredByIDs(ctx, receiverID, []int64{messageID}, s.now())
	if err != nil {
		s.log.Warn("Failed to confirm relayed delivery", "error", err, "message_id", messageID)
		return
	}
	s.announceDeliveries(ctx, deliveries)
}

func (s *chatService) markDeliveredNow(ctx context.Context, message *domain.Message) {
	deliveries, err := s.messages.MarkDeliveredByIDs(ctx, message.ReceiverID, []int64{message.ID}, s.now())
	if err != nil {
		s.log.Warn("Failed to mark message delivered", "error", err, "message_id", message.ID)
		return
	}

	for _, d := range deliveries {
		if d.MessageID == message.ID {
			at := d.DeliveredAt
			message.DeliveredAt = &at
		}
	}
	s.announceDeliveries(ctx, deliveries)
}

func (s *chatService) announceDeliveries(ctx context.Context, deliveries []domain.Delivery) {
	for _, d := range deliveries {
		s.notify(ctx, d.SenderID, domain.EventMessageDelivered, domain.DeliveredEvent{
			MessageID:   d.MessageID,
			DeliveredAt: d.DeliveredAt,
		})
	}
}
