package billing

import (
	"context"
	"time"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain"
)

// Repository persists bills with their line items.
type Repository interface {
	// Create inserts the bill and all of its items. Requires a transaction.
	Create(ctx context.Context, bill *Bill) error

	// GetByID returns the bill with items.
	GetByID(ctx context.Context, shopID, billID id.ID) (*Bill, error)

	// List returns bills newest first, without items.
	List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*Bill], error)

	// ListRange returns bills created in [from, to) with items, oldest first.
	ListRange(ctx context.Context, shopID id.ID, from, to time.Time) ([]*Bill, error)

	// SalesSummary totals bills created in [from, to).
	SalesSummary(ctx context.Context, shopID id.ID, from, to time.Time) (types.Money, int, error)

	// Delete removes the bill; items cascade.
	Delete(ctx context.Context, shopID, billID id.ID) error
}
