package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/domain/shop"
	"stocky/internal/infrastructure/storage/postgres"
)

const profilesTable = "shop_profiles"

// ShopProfileRepo implements shop.Repository. Profiles are keyed by the
// owner id, so they do not use the shop-scoped base.
type ShopProfileRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

var _ shop.Repository = (*ShopProfileRepo)(nil)

// NewShopProfileRepo creates a new shop profile repository.
func NewShopProfileRepo(txManager *postgres.TxManager) *ShopProfileRepo {
	return &ShopProfileRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[shop.Profile](),
	}
}

// Get returns the profile or NOT_FOUND.
func (r *ShopProfileRepo) Get(ctx context.Context, shopID id.ID) (*shop.Profile, error) {
	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(profilesTable).
		Where(squirrel.Eq{"id": shopID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p shop.Profile
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shop profile", shopID.String())
		}
		return nil, fmt.Errorf("get shop profile: %w", err)
	}
	return &p, nil
}

func (r *ShopProfileRepo) createQuery(p *shop.Profile) squirrel.InsertBuilder {
	return postgres.Builder().
		Insert(profilesTable).
		SetMap(postgres.StructToMap(p)).
		Suffix("ON CONFLICT (id) DO NOTHING")
}

// Create inserts the profile; an existing row is left untouched.
func (r *ShopProfileRepo) Create(ctx context.Context, p *shop.Profile) error {
	sql, args, err := r.createQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert shop profile: %w", err)
	}
	return nil
}

func (r *ShopProfileRepo) updateQuery(p *shop.Profile) squirrel.UpdateBuilder {
	data := postgres.StructToMap(p)
	delete(data, "id")
	delete(data, "created_at")
	return postgres.Builder().
		Update(profilesTable).
		SetMap(data).
		Where(squirrel.Eq{"id": p.ID})
}

// Update writes settings and display fields.
func (r *ShopProfileRepo) Update(ctx context.Context, p *shop.Profile) error {
	sql, args, err := r.updateQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update shop profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("shop profile", p.ID.String())
	}
	return nil
}

// ListAll loads every profile.
func (r *ShopProfileRepo) ListAll(ctx context.Context) ([]*shop.Profile, error) {
	sql, args, err := postgres.Builder().Select(r.cols...).From(profilesTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var profiles []*shop.Profile
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &profiles, sql, args...); err != nil {
		return nil, fmt.Errorf("list shop profiles: %w", err)
	}
	return profiles, nil
}
