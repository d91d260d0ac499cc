// Package devices keeps the push tokens registered by each owner's devices.
package devices

import (
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
)

// MaxTokenLength bounds what we accept as a device token.
const MaxTokenLength = 4096

// Token is one device registration. A token belongs to a single owner;
// registering it again moves it and bumps UpdatedAt.
type Token struct {
	Token     string    `db:"token" json:"token"`
	OwnerID   id.ID     `db:"user_id" json:"ownerId"`
	Platform  string    `db:"platform" json:"platform,omitempty"`
	UpdatedAt time.Time `db:"last_updated_at" json:"updatedAt"`
}

// NormalizeToken trims and checks an opaque device token.
func NormalizeToken(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", apperror.NewValidation("device token is required").WithDetail("field", "token")
	}
	if len(t) > MaxTokenLength {
		return "", apperror.NewValidation("device token is too long").WithDetail("field", "token")
	}
	return t, nil
}
