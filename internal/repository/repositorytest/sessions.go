package repositorytest

import (
	"context"
	"sync"
	"time"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
)

// SessionStore is an in-memory repository.SessionRepository.
type SessionStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*domain.Session
}

var _ repository.SessionRepository = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*domain.Session)}
}

func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	session.ID = s.nextID
	session.CreatedAt = time.Now().UTC()
	stored := *session
	s.sessions[stored.ID] = &stored
	return nil
}

func (s *SessionStore) GetActive(_ context.Context, tokenHash string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, session := range s.sessions {
		if session.TokenHash == tokenHash && session.RevokedAt == nil && session.ExpiresAt.After(now) {
			found := *session
			return &found, nil
		}
	}
	return nil, apperrors.ErrInvalidToken
}

func (s *SessionStore) Revoke(_ context.Context, id int64, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	session.RevokedAt = &now
	session.RevokedReason = &reason
	return true, nil
}

// Active counts unrevoked sessions of userID.
func (s *SessionStore) Active(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, session := range s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			n++
		}
	}
	return n
}
