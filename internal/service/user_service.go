package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// UpdateUserPayload holds optional field updates for a user record.
type UpdateUserPayload struct {
	Username *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService manages user accounts beyond the auth flows.
type UserService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, hasher: hasher, dispatcher: dispatcher}
}

// List returns all users, newest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Create provisions an account. Accounts are always created with the User
// role; promotion happens through Update.
func (s *UserService) Create(ctx context.Context, username, email, password string) (*domain.User, error) {
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
	return user, nil
}

// Update applies partial changes. A new password produces a brand-new hash.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, payload UpdateUserPayload) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Username != nil {
		user.Username = *payload.Username
	}
	if payload.Email != nil {
		user.Email = *payload.Email
	}
	if payload.Password != nil {
		hash, err := s.hasher.Hash(*payload.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if payload.Role != nil {
		user.Role = *payload.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict("username or email already taken")
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("user")
		default:
			return nil, apperrors.NewInternalError(err)
		}
	}

	now := time.Now()
	user.UpdatedAt = &now
	return user, nil
}

// Delete removes the account.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventUserDeleted, id, &actorID, nil))
	}
	return nil
}
