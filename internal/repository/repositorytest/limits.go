package repositorytest

import (
	"context"
	"sync"
	"time"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
)

// RateLimitStore is a fixed-window counter kept in memory. Windows never expire.
type RateLimitStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

var _ repository.RateLimitRepository = (*RateLimitStore)(nil)

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{counts: make(map[string]int64)}
}

func (s *RateLimitStore) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

// AuditStore records audit entries in memory.
type AuditStore struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

var _ repository.AuditRepository = (*AuditStore)(nil)

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Insert(_ context.Context, entry *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *AuditStore) Logs() []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditLog(nil), s.logs...)
}
