// Package repositorytest provides in-memory repositories for service and handler tests.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
)

// MessageStore is a concurrency-safe in-memory repository.MessageRepository.
type MessageStore struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*domain.Message

	// CreateErr, when set, is returned by Create without storing anything.
	CreateErr error
	Now       func() time.Time
}

var _ repository.MessageRepository = (*MessageStore)(nil)

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[int64]*domain.Message),
		Now:      time.Now,
	}
}

func (s *MessageStore) Create(_ context.Context, message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.nextID++
	message.ID = s.nextID
	message.CreatedAt = s.Now()
	s.messages[message.ID] = clone(message)
	return nil
}

// Seed stores a message as-is, assigning an id.
func (s *MessageStore) Seed(message domain.Message) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	message.ID = s.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.Now()
	}
	s.messages[message.ID] = clone(&message)
	return clone(&message)
}

func (s *MessageStore) GetByID(_ context.Context, id int64) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	return clone(message), nil
}

func (s *MessageStore) MarkDelivered(_ context.Context, receiverID int64, at time.Time) ([]domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.markDelivered(at, func(m *domain.Message) bool { return m.ReceiverID == receiverID }), nil
}

func (s *MessageStore) MarkDeliveredByIDs(_ context.Context, receiverID int64, ids []int64, at time.Time) ([]domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return s.markDelivered(at, func(m *domain.Message) bool {
		_, ok := wanted[m.ID]
		return ok && m.ReceiverID == receiverID
	}), nil
}

func (s *MessageStore) markDelivered(at time.Time, match func(*domain.Message) bool) []domain.Delivery {
	var deliveries []domain.Delivery
	for _, m := range s.sorted() {
		if m.DeliveredAt != nil || !match(m) {
			continue
		}
		ts := at
		m.DeliveredAt = &ts
		deliveries = append(deliveries, domain.Delivery{MessageID: m.ID, SenderID: m.SenderID, DeliveredAt: ts})
	}
	return deliveries
}

func (s *MessageStore) MarkRead(_ context.Context, receiverID, senderID int64, at time.Time) (domain.ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result domain.ReadResult
	for _, m := range s.sorted() {
		if m.ReceiverID != receiverID || m.SenderID != senderID || m.ReadAt != nil {
			continue
		}
		ts := at
		m.ReadAt = &ts
		if m.DeliveredAt == nil {
			m.DeliveredAt = &ts
			result.Delivered = append(result.Delivered, domain.Delivery{MessageID: m.ID, SenderID: senderID, DeliveredAt: ts})
		}
		result.MessageIDs = append(result.MessageIDs, m.ID)
	}
	return result, nil
}

func (s *MessageStore) CountUnread(_ context.Context, receiverID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && m.ReadAt == nil {
			total++
		}
	}
	return total, nil
}

func (s *MessageStore) CountUnreadBySenders(_ context.Context, receiverID int64, senderIDs []int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]struct{}, len(senderIDs))
	for _, id := range senderIDs {
		wanted[id] = struct{}{}
	}

	counts := make(map[int64]int64, len(senderIDs))
	for _, m := range s.messages {
		if _, ok := wanted[m.SenderID]; ok && m.ReceiverID == receiverID && m.ReadAt == nil {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (s *MessageStore) ListRecent(_ context.Context, userID int64, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.newestFirst(limit, func(m *domain.Message) bool { return m.Involves(userID) }), nil
}

func (s *MessageStore) ListConversation(_ context.Context, userID, peerID, beforeID int64, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.newestFirst(limit, func(m *domain.Message) bool {
		return m.Involves(userID) && m.PeerOf(userID) == peerID && (beforeID == 0 || m.ID < beforeID)
	}), nil
}

func (s *MessageStore) Search(_ context.Context, userID int64, query string, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.ToLower(query)
	return s.newestFirst(limit, func(m *domain.Message) bool {
		return m.Involves(userID) && strings.Contains(strings.ToLower(m.Text), query)
	}), nil
}

func (s *MessageStore) DeleteConversation(_ context.Context, userID, peerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, m := range s.messages {
		if m.Involves(userID) && m.PeerOf(userID) == peerID {
			delete(s.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MessageStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return apperrors.ErrMessageNotFound
	}
	delete(s.messages, id)
	return nil
}

// All returns a snapshot of every stored message ordered by id.
func (s *MessageStore) All() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Message, 0, len(s.messages))
	for _, m := range s.sorted() {
		out = append(out, *clone(m))
	}
	return out
}

func (s *MessageStore) newestFirst(limit int, match func(*domain.Message) bool) []*domain.Message {
	all := s.sorted()
	out := make([]*domain.Message, 0)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if match(all[i]) {
			out = append(out, clone(all[i]))
		}
	}
	return out
}

// sorted must be called with mu held; the returned pointers are the stored rows.
func (s *MessageStore) sorted() []*domain.Message {
	out := make([]*domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clone(m *domain.Message) *domain.Message {
	c := *m
	if m.DeliveredAt != nil {
		t := *m.DeliveredAt
		c.DeliveredAt = &t
	}
	if m.ReadAt != nil {
		t := *m.ReadAt
		c.ReadAt = &t
	}
	return &c
}
