package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/jwt"
	"volunteer_platform/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name, role string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	// ValidateToken checks signature and expiry only.
	ValidateToken(ctx context.Context, tokenString string) (*domain.Principal, error)
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

type LoginResponse struct {
	User *domain.User `json:"user"`
	TokenResponse
}

type authService struct {
	userRepo repository.UserRepository
	sessions repository.SessionRepository
	audit    AuditService
	jwtCfg   config.JWTConfig
	validate *validator.Validate
	log      logger.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions repository.SessionRepository,
	audit AuditService,
	jwtCfg config.JWTConfig,
	log logger.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
		audit:    audit,
		jwtCfg:   jwtCfg,
		validate: newValidator(),
		log:      log,
	}
}

// admins are provisioned out of band
type registerInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,maxbytes=72"`
	Name     string `validate:"required,max=100"`
	Role     string `validate:"oneof=volunteer organizer"`
}

func (s *authService) Register(ctx context.Context, email, password, name, role string) (*domain.User, error) {
	input := registerInput{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
		Name:     strings.TrimSpace(name),
		Role:     strings.ToLower(strings.TrimSpace(role)),
	}
	if input.Role == "" {
		input.Role = domain.RoleVolunteer
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBadRequest, describeRegistration(err))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", apperrors.ErrBadRequest)
		}
		s.log.Error("Failed to hash password", "error", err)
		return nil, errors.New("failed to hash password")
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(passwordHash),
		Name:         input.Name,
		Role:         input.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, domain.Principal{UserID: user.ID, Role: user.Role}, domain.EventTypeUserRegistered, map[string]any{"email": user.Email}); err != nil {
			s.log.Warn("Failed to write audit log", "error", err, "user_id", user.ID)
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func describeRegistration(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Email":
		return "invalid email format"
	case "Password":
		if fe.Tag() == "maxbytes" {
			return "password must be at most 72 bytes"
		}
		return "password must be at least 8 characters"
	case "Name":
		return "name must be 1-100 characters"
	default:
		return "role must be volunteer or organizer"
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResponse{User: user, TokenResponse: *tokens}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	userID, err := jwt.ValidateRefreshToken(refreshToken, s.jwtCfg.RefreshSecret)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetActive(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}

	// a concurrent refresh of the same token loses here
	revoked, err := s.sessions.Revoke(ctx, session.ID, domain.SessionRevokedRefreshed)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, apperrors.ErrInvalidToken
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.GetActive(ctx, hashToken(refreshToken))
	if err != nil {
		return err
	}

	if _, err := s.sessions.Revoke(ctx, session.ID, domain.SessionRevokedLogout); err != nil {
		return err
	}
	s.log.Info("Session revoked", "user_id", session.UserID, "session_id", session.ID)
	return nil
}

func (s *authService) ValidateToken(_ context.Context, tokenString string) (*domain.Principal, error) {
	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		return nil, err
	}

	return &domain.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*TokenResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Role, s.jwtCfg.AccessSecret, s.jwtCfg.Issuer, s.jwtCfg.AccessTTL)
	if err != nil {
		s.log.Error("Failed to generate access token", "error", err)
		return nil, errors.New("failed to generate access token")
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.jwtCfg.RefreshSecret, s.jwtCfg.RefreshTTL)
	if err != nil {
		s.log.Error("Failed to generate refresh token", "error", err)
		return nil, errors.New("failed to generate refresh token")
	}

	session := &domain.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.jwtCfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtCfg.AccessTTL / time.Second),
	}, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
