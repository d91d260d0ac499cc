package auth

import (
	"context"

	"stocky/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update saves login bookkeeping and profile flags.
	Update(ctx context.Context, user *User) error

	// Exists checks if email is taken.
	Exists(ctx context.Context, email string) (bool, error)
}
