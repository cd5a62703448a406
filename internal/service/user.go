package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context, userID int64) (*domain.User, error)
	// UpdateMe renames the caller and refreshes the cached identity.
	UpdateMe(ctx context.Context, userID int64, name string) (*domain.User, error)
	GetIdentity(ctx context.Context, userID int64) (*domain.Identity, error)
}

type userService struct {
	userRepo repository.UserRepository
	cache    repository.IdentityCache
	validate *validator.Validate
	log      logger.Logger
}

func NewUserService(userRepo repository.UserRepository, cache repository.IdentityCache, log logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		cache:    cache,
		validate: newValidator(),
		log:      log,
	}
}

func (s *userService) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

type renameInput struct {
	Name string `validate:"required,max=100"`
}

func (s *userService) UpdateMe(ctx context.Context, userID int64, name string) (*domain.User, error) {
	input := renameInput{Name: strings.TrimSpace(name)}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: name must be 1-100 characters", apperrors.ErrBadRequest)
	}

	user, err := s.userRepo.UpdateName(ctx, userID, input.Name)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetMany(ctx, []domain.Identity{user.Identity()})
	}

	s.log.Info("User renamed", "user_id", userID)
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetIdentity(ctx context.Context, userID int64) (*domain.Identity, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}
