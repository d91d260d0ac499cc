package medicine

import (
	"context"
	"time"

	"stocky/internal/core/id"
	"stocky/internal/domain"
)

// Category selects one of the alert views over a shop's stock.
type Category string

const (
	CategoryLowStock     Category = "low-stock"
	CategoryExpired      Category = "expired"
	CategoryExpiringSoon Category = "expiring-soon"
	// CategoryReturnCandidate is everything expiring within the window
	// (already expired included) that still has stock to send back.
	CategoryReturnCandidate Category = "return-candidate"
)

// CategoryQuery parameterises FindByCategory and CountByCategory.
// Results are ordered by expiry date ascending.
type CategoryQuery struct {
	Category          Category
	Today             time.Time
	LowStockThreshold int
	ExpiryWindowDays  int
	// RequireStock restricts expired batches to ones with stock on hand.
	RequireStock bool
	// Limit caps the list; zero means no cap.
	Limit int
}

// Repository defines persistence for medicine batches. Every method is
// scoped to a shop except ListAll, which serves the cross-shop digest.
type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error)

	// GetForUpdate retrieves the batch with a row lock (inside a transaction).
	GetForUpdate(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error)

	// Update writes all editable fields with optimistic locking on Version.
	Update(ctx context.Context, m *Medicine) error

	// UpdateStock writes only the stock columns. Callers hold the row lock.
	UpdateStock(ctx context.Context, m *Medicine) error

	Delete(ctx context.Context, shopID, medicineID id.ID) error
	List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*Medicine], error)

	// SearchForSale matches name or composition, soonest expiry first.
	SearchForSale(ctx context.Context, shopID id.ID, query string, limit int) ([]*Medicine, error)

	// ListAll loads every batch of every shop.
	ListAll(ctx context.Context) ([]*Medicine, error)

	FindByCategory(ctx context.Context, shopID id.ID, q CategoryQuery) ([]*Medicine, error)
	CountByCategory(ctx context.Context, shopID id.ID, q CategoryQuery) (int, error)
}
