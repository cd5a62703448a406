package repositorytest

import (
	"context"
	"strings"
	"sync"
	"time"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User

	// IdentitiesErr, when set, makes GetIdentities fail.
	IdentitiesErr error
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]*domain.User)}
}

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// Add registers a user with the given name and role and returns its id.
func (s *UserStore) Add(name, role string) int64 {
	user := &domain.User{
		Email: strings.ToLower(name) + "@example.org",
		Name:  name,
		Role:  role,
	}
	_ = s.Create(context.Background(), user)
	return user.ID
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *UserStore) UpdateName(_ context.Context, id int64, name string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	user.Name = name
	user.UpdatedAt = time.Now()
	c := *user
	return &c, nil
}

func (s *UserStore) GetIdentities(_ context.Context, ids []int64) (map[int64]domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.IdentitiesErr != nil {
		return nil, s.IdentitiesErr
	}

	out := make(map[int64]domain.Identity, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Identity()
		}
	}
	return out, nil
}

func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
