package returns

import (
	"context"

	"stocky/internal/core/id"
	"stocky/internal/domain"
)

// Repository persists returns.
type Repository interface {
	Create(ctx context.Context, r *Return) error
	// List returns records newest first.
	List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*Return], error)
}
