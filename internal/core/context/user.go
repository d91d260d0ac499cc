// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"stocky/internal/core/id"
)

// UserContext contains authenticated owner information.
// Every owner account runs exactly one shop, so ShopID equals UserID today;
// they are kept apart so that staff accounts can later point at a shared shop.
type UserContext struct {
	UserID    string
	ShopID    string
	Email     string
	SessionID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetShopID returns the parsed shop ID of the authenticated owner.
func GetShopID(ctx context.Context) (id.ID, bool) {
	u := GetUser(ctx)
	if u == nil || u.ShopID == "" {
		return id.Nil(), false
	}
	shopID, err := id.Parse(u.ShopID)
	if err != nil {
		return id.Nil(), false
	}
	return shopID, true
}
