package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stocky/internal/core/id"
	"stocky/internal/domain/devices"
	"stocky/internal/infrastructure/storage/postgres"
)

// PushTokenRepo implements devices.Repository over push_tokens.
type PushTokenRepo struct {
	txManager *postgres.TxManager
}

var _ devices.Repository = (*PushTokenRepo)(nil)

// NewPushTokenRepo creates a new push token repository.
func NewPushTokenRepo(txManager *postgres.TxManager) *PushTokenRepo {
	return &PushTokenRepo{txManager: txManager}
}

// Upsert inserts the token, or moves it to the owner and bumps its timestamp.
func (r *PushTokenRepo) Upsert(ctx context.Context, t *devices.Token) error {
	query := `
		INSERT INTO push_tokens (token, user_id, platform, last_updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			last_updated_at = EXCLUDED.last_updated_at
	`
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, t.Token, t.OwnerID, t.Platform, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's tokens, most recently refreshed first.
func (r *PushTokenRepo) ListByOwner(ctx context.Context, ownerID id.ID) ([]*devices.Token, error) {
	tokens := []*devices.Token{}
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &tokens, `
		SELECT token, user_id, platform, last_updated_at
		FROM push_tokens
		WHERE user_id = $1
		ORDER BY last_updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	return tokens, nil
}

// Delete removes the owner's token.
func (r *PushTokenRepo) Delete(ctx context.Context, ownerID id.ID, token string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`, ownerID, token)
	if err != nil {
		return fmt.Errorf("delete push token: %w", err)
	}
	return nil
}

// Prune removes a token regardless of owner.
func (r *PushTokenRepo) Prune(ctx context.Context, token string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `DELETE FROM push_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("prune push token: %w", err)
	}
	return nil
}
