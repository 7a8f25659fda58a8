package dto

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/blog-service/internal/domain"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 50
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate enforces field presence, username bounds, email syntax and the
// password policy.
func (r RegisterRequest) Validate() error {
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return domain.ValidatePassword(r.Password, domain.DefaultPasswordRequirements())
}

// LoginRequest payload for credential exchange.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r LoginRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateUserRequest payload for admin user updates; all fields optional.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Validate checks whichever fields are present.
func (r UpdateUserRequest) Validate() error {
	if r.Username != nil {
		if err := validateUsername(*r.Username); err != nil {
			return err
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Password != nil {
		if err := domain.ValidatePassword(*r.Password, domain.DefaultPasswordRequirements()); err != nil {
			return err
		}
	}
	if r.Role != nil {
		if _, err := domain.ParseRole(*r.Role); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfileRequest payload for self-service profile updates. Role is
// deliberately absent: a caller cannot promote themselves.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Validate checks whichever fields are present.
func (r UpdateProfileRequest) Validate() error {
	return UpdateUserRequest{Username: r.Username, Email: r.Email, Password: r.Password}.Validate()
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewUserResponse maps a domain user onto its public projection.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func validateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return fmt.Errorf("username must be between %d and %d characters", usernameMinLen, usernameMaxLen)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
