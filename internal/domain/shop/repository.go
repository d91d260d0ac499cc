package shop

import (
	"context"

	"stocky/internal/core/id"
)

// Repository persists shop profiles.
type Repository interface {
	// Get returns the profile or a NOT_FOUND AppError.
	Get(ctx context.Context, shopID id.ID) (*Profile, error)
	// Create inserts the profile; an existing row is left untouched.
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	// ListAll loads every profile for the digest.
	ListAll(ctx context.Context) ([]*Profile, error)
}
