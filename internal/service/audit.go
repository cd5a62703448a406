package service

import (
	"context"
	"time"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	"volunteer_platform/pkg/logger"
)

type AuditService interface {
	// Record stores one entry attributed to actor. A zero actor is recorded without a user.
	Record(ctx context.Context, actor domain.Principal, eventType string, payload map[string]any) error
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
	now       func() time.Time
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *auditService) Record(ctx context.Context, actor domain.Principal, eventType string, payload map[string]any) error {
	entry := &domain.AuditLog{
		EventTime: s.now(),
		ActorRole: actor.Role,
		EventType: eventType,
		Payload:   payload,
	}
	if actor.UserID > 0 {
		actorID := actor.UserID
		entry.ActorUserID = &actorID
	}
	if entry.Payload == nil {
		entry.Payload = map[string]any{}
	}

	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		return err
	}
	s.log.Debug("Audit entry recorded", "event_type", eventType, "actor_user_id", actor.UserID)
	return nil
}
