package auth

import (
	"context"

	"posada/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves a user by email (within the tenant database).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists login bookkeeping fields.
	Update(ctx context.Context, user *User) error

	// LoadRoles loads the user's role codes.
	LoadRoles(ctx context.Context, userID id.ID) ([]string, error)
}
