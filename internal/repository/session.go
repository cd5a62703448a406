package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volunteer_platform/internal/domain"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// GetActive finds an unrevoked, unexpired session by token hash.
	// A miss is apperrors.ErrInvalidToken.
	GetActive(ctx context.Context, tokenHash string) (*domain.Session, error)
	// Revoke reports false when the session was already revoked.
	Revoke(ctx context.Context, id int64, reason string) (bool, error)
}

type sessionRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewSessionRepository(db *pgxpool.Pool, log logger.Logger) SessionRepository {
	return &sessionRepository{db: db, log: log}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, session.UserID, session.TokenHash, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create session", "error", err, "user_id", session.UserID)
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) GetActive(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, created_at, expires_at, revoked_at, revoked_reason
		FROM user_sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`

	session := &domain.Session{}
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.CreatedAt, &session.ExpiresAt, &session.RevokedAt, &session.RevokedReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidToken
		}
		r.log.Error("Failed to get session", "error", err)
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, id int64, reason string) (bool, error) {
	query := `
		UPDATE user_sessions
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		r.log.Error("Failed to revoke session", "error", err, "session_id", id)
		return false, fmt.Errorf("revoke session: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
