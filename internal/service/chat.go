package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

type ChatService interface {
	// Connect runs the join side effects for a freshly registered live connection.
	Connect(ctx context.Context, userID int64) error
	SendMessage(ctx context.Context, sender domain.Principal, receiverID int64, text string) (*domain.LiveMessage, error)
	MarkDelivered(ctx context.Context, receiverID int64) ([]domain.Delivery, error)
	ConfirmDelivery(ctx context.Context, receiverID, messageID int64)
	MarkConversationRead(ctx context.Context, viewerID, peerID int64) ([]int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	PushUnreadCount(ctx context.Context, userID int64) error
	Conversations(ctx context.Context, userID int64) ([]domain.ConversationSummary, error)
	ListMessages(ctx context.Context, userID, peerID, beforeID int64, limit int) ([]*domain.Message, error)
	SearchMessages(ctx context.Context, userID int64, query string, limit int) ([]*domain.Message, error)
	DeleteConversation(ctx context.Context, actor domain.Principal, peerID int64) (int64, error)
	DeleteMessage(ctx context.Context, actor domain.Principal, messageID int64) error
}

type chatService struct {
	messages   repository.MessageRepository
	identities IdentityResolver
	notifier   Notifier
	presence   Presence
	rateLimit  RateLimitService
	audit      AuditService
	cfg        config.ChatConfig
	validate   *validator.Validate
	log        logger.Logger
	now        func() time.Time
}

func NewChatService(
	messages repository.MessageRepository,
	identities IdentityResolver,
	notifier Notifier,
	presence Presence,
	rateLimit RateLimitService,
	audit AuditService,
	cfg config.ChatConfig,
	log logger.Logger,
) ChatService {
	return &chatService{
		messages:   messages,
		identities: identities,
		notifier:   notifier,
		presence:   presence,
		rateLimit:  rateLimit,
		audit:      audit,
		cfg:        cfg,
		validate:   newValidator(),
		log:        log,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type sendInput struct {
	SenderID   int64  `validate:"required,gt=0"`
	ReceiverID int64  `validate:"required,gt=0,nefield=SenderID"`
	Text       string `validate:"required,max=4000"`
}

func (s *chatService) SendMessage(ctx context.Context, sender domain.Principal, receiverID int64, text string) (*domain.LiveMessage, error) {
	input := sendInput{
		SenderID:   sender.UserID,
		ReceiverID: receiverID,
		Text:       strings.TrimSpace(text),
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidMessage, describeValidation(err))
	}

	if err := s.allowSend(ctx, sender.UserID); err != nil {
		return nil, err
	}

	message := &domain.Message{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Text:       input.Text,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	live := &domain.LiveMessage{Message: message, SenderRole: sender.Role}
	s.log.Debug("Message stored", "message_id", message.ID, "sender_id", message.SenderID, "receiver_id", message.ReceiverID)

	s.notify(ctx, message.ReceiverID, domain.EventMessageNew, live)
	s.notify(ctx, message.SenderID, domain.EventMessageAck, live)

	if s.presence != nil {
		if s.presence.IsOnline(message.ReceiverID) {
			s.markDeliveredNow(ctx, message)
		} else if err := s.presence.RequestDelivery(ctx, message.ReceiverID, message.ID); err != nil {
			s.log.Warn("Failed to request remote delivery", "error", err, "message_id", message.ID)
		}
	}

	if err := s.PushUnreadCount(ctx, message.ReceiverID); err != nil {
		s.log.Warn("Failed to push unread count", "error", err, "user_id", message.ReceiverID)
	}

	return live, nil
}

// allowSend applies the per-user send limit. Limiter outages fail open.
func (s *chatService) allowSend(ctx context.Context, userID int64) error {
	if s.rateLimit == nil || s.cfg.SendRateLimit <= 0 {
		return nil
	}

	rule := domain.RateLimitRule{
		Scope:  domain.RateLimitScopeMessageSend,
		Limit:  s.cfg.SendRateLimit,
		Window: s.cfg.SendRateWindow,
	}
	allowed, _, err := s.rateLimit.Allow(ctx, rule, fmt.Sprintf("%d", userID))
	if err != nil {
		s.log.Warn("Send rate limit unavailable", "error", err, "user_id", userID)
		return nil
	}
	if !allowed {
		return apperrors.ErrRateLimited
	}
	return nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, peerID, beforeID int64, limit int) ([]*domain.Message, error) {
	if peerID <= 0 || peerID == userID {
		return nil, apperrors.ErrInvalidPeer
	}
	if beforeID < 0 {
		return nil, fmt.Errorf("%w: negative cursor", apperrors.ErrBadRequest)
	}

	return s.messages.ListConversation(ctx, userID, peerID, beforeID, s.pageSize(limit))
}

func (s *chatService) SearchMessages(ctx context.Context, userID int64, query string, limit int) ([]*domain.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", apperrors.ErrBadRequest)
	}

	return s.messages.Search(ctx, userID, query, s.pageSize(limit))
}

func (s *chatService) DeleteConversation(ctx context.Context, actor domain.Principal, peerID int64) (int64, error) {
	if peerID <= 0 || peerID == actor.UserID {
		return 0, apperrors.ErrInvalidPeer
	}

	deleted, err := s.messages.DeleteConversation(ctx, actor.UserID, peerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation: %w", err)
	}

	s.logAudit(ctx, actor, domain.EventTypeConversationDeleted, map[string]any{
		"peer_id": peerID,
		"deleted": deleted,
	})

	if err := s.PushUnreadCount(ctx, actor.UserID); err != nil {
		s.log.Warn("Failed to push unread count", "error", err, "user_id", actor.UserID)
	}

	return deleted, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, actor domain.Principal, messageID int64) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	// hide existence from non-participants
	if !message.Involves(actor.UserID) {
		return apperrors.ErrMessageNotFound
	}
	if message.SenderID != actor.UserID {
		return fmt.Errorf("%w: only the sender can delete a message", apperrors.ErrForbidden)
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	s.logAudit(ctx, actor, domain.EventTypeMessageDeleted, map[string]any{
		"message_id":  messageID,
		"receiver_id": message.ReceiverID,
	})

	if message.ReadAt == nil {
		if err := s.PushUnreadCount(ctx, message.ReceiverID); err != nil {
			s.log.Warn("Failed to push unread count", "error", err, "user_id", message.ReceiverID)
		}
	}

	return nil
}

func (s *chatService) logAudit(ctx context.Context, actor domain.Principal, eventType string, payload map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, actor, eventType, payload); err != nil {
		s.log.Warn("Failed to write audit log", "error", err, "event_type", eventType)
	}
}

func (s *chatService) pageSize(limit int) int {
	if limit <= 0 {
		return s.cfg.PageSizeDefault
	}
	if limit > s.cfg.PageSizeMax {
		return s.cfg.PageSizeMax
	}
	return limit
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Text":
		if fe.Tag() == "max" {
			return fmt.Sprintf("text is longer than %d characters", domain.MaxMessageLength)
		}
		return "text must not be empty"
	case "ReceiverID":
		if fe.Tag() == "nefield" {
			return "cannot send a message to yourself"
		}
		return "receiver_id must be a positive user id"
	default:
		return "sender is not authenticated"
	}
}
