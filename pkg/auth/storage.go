package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStorage defines the user persistence operations the orchestrator
// requires.
type UserStorage interface {
	// GetUserByEmail returns the user with the given normalized email, or
	// ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser stores a new user. A duplicate email yields
	// ErrEmailAlreadyExists.
	CreateUser(ctx context.Context, user *User) error

	// UpdateLastLogin records the user's last successful login time.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}
