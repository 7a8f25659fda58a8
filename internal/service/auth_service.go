package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Login verifies credentials and issues a signed token.
//
// The client-facing error never distinguishes "no such user" from "wrong
// password", and the unknown-user branch still burns a full hash verification
// so that response timing does not reveal account existence.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.hasher.VerifyDecoy(password)
			return "", apperrors.NewUnauthorized("Invalid credentials")
		}
		return "", apperrors.NewInternalError(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return "", apperrors.NewInternalError(err)
	}
	if !valid {
		return "", apperrors.NewUnauthorized("Invalid credentials")
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID, &user.ID, nil))
	}
	return token, nil
}

// Register creates a new account with the User role.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username or email already taken")
		}
		return nil, apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, &user.ID,
			events.UserRegisteredPayload{Username: user.Username}))
	}
	return user, nil
}
