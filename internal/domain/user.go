package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole maps stored or transmitted role strings onto the enumeration.
func ParseRole(s string) (Role, error) {
	switch s {
	case "User", "user":
		return RoleUser, nil
	case "Admin", "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is the domain model for registered accounts.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
