// Package domain provides types shared by every business area.
package domain

import (
	"context"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches the area's searchable text columns (ILIKE).
	Search string

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit: 50,
	}
}

// Normalize clamps paging values.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// RequireShop returns the authenticated owner's shop or UNAUTHORIZED.
func RequireShop(ctx context.Context) (id.ID, error) {
	shopID, ok := appctx.GetShopID(ctx)
	if !ok {
		return id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	return shopID, nil
}
