package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volunteer_platform/internal/domain"
	"volunteer_platform/pkg/logger"
)

type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLog) error
}

type auditRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) Insert(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_log (event_time, actor_user_id, actor_role, event_type, payload)
		VALUES (@event_time, @actor_user_id, NULLIF(@actor_role, ''), @event_type, @payload)
		RETURNING id
	`

	args := pgx.NamedArgs{
		"event_time":    entry.EventTime,
		"actor_user_id": entry.ActorUserID,
		"actor_role":    entry.ActorRole,
		"event_type":    entry.EventType,
		"payload":       entry.Payload,
	}

	if err := r.db.QueryRow(ctx, query, args).Scan(&entry.ID); err != nil {
		r.log.Error("Failed to insert audit entry", "error", err, "event_type", entry.EventType)
		return err
	}

	return nil
}
