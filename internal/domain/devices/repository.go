package devices

import (
	"context"

	"stocky/internal/core/id"
)

// Repository persists device tokens.
type Repository interface {
	// Upsert inserts the token or reassigns it and bumps its timestamp.
	Upsert(ctx context.Context, t *Token) error
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*Token, error)
	// Delete removes the owner's token. Missing tokens are not an error.
	Delete(ctx context.Context, ownerID id.ID, token string) error
	// Prune removes a token regardless of owner.
	Prune(ctx context.Context, token string) error
}
