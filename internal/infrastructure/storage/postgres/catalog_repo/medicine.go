package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/medicine"
	"stocky/internal/infrastructure/storage/postgres"
)

const medicinesTable = "medicines"

// hasStock is the SQL form of Medicine.HasStock.
const hasStock = "(stock_packets > 0 OR stock_loose > 0)"

// MedicineRepo implements medicine.Repository.
type MedicineRepo struct {
	*BaseRepo[*medicine.Medicine]
}

var _ medicine.Repository = (*MedicineRepo)(nil)

// NewMedicineRepo creates a new medicine repository.
func NewMedicineRepo(txManager *postgres.TxManager) *MedicineRepo {
	return &MedicineRepo{
		BaseRepo: NewBaseRepo(
			txManager,
			medicinesTable,
			"medicine",
			postgres.ExtractDBColumns[medicine.Medicine](),
			[]string{"name", "expiry_date", "created_at", "updated_at", "stock_packets", "mrp"},
			"expiry_date ASC, name ASC",
			func() *medicine.Medicine { return &medicine.Medicine{} },
		),
	}
}

// UpdateStock writes the stock columns without touching version.
func (r *MedicineRepo) UpdateStock(ctx context.Context, m *medicine.Medicine) error {
	sql, args, err := r.updateStockQuery(m).ToSql()
	if err != nil {
		return fmt.Errorf("build update stock: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update stock: medicine %s not found", m.ID)
	}
	return nil
}

func (r *MedicineRepo) updateStockQuery(m *medicine.Medicine) squirrel.UpdateBuilder {
	return r.Builder().
		Update(medicinesTable).
		Set("stock_packets", m.PackageStock).
		Set("stock_loose", m.LooseStock).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": m.ID, "shop_id": m.ShopID})
}

// List pages through the shop's batches, searching name and composition.
func (r *MedicineRepo) List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*medicine.Medicine], error) {
	return r.list(ctx, r.searchQuery(shopID, filter.Search), filter)
}

func (r *MedicineRepo) searchQuery(shopID id.ID, search string) squirrel.SelectBuilder {
	q := r.baseSelect(shopID)
	if search != "" {
		pattern := postgres.LikePattern(search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"composition": pattern},
		})
	}
	return q
}

// SearchForSale matches name or composition, soonest expiry first.
func (r *MedicineRepo) SearchForSale(ctx context.Context, shopID id.ID, query string, limit int) ([]*medicine.Medicine, error) {
	q := r.searchQuery(shopID, query).
		OrderBy("expiry_date ASC", "name ASC").
		Limit(uint64(limit))
	return r.selectMany(ctx, q)
}

// ListAll loads every batch of every shop.
func (r *MedicineRepo) ListAll(ctx context.Context) ([]*medicine.Medicine, error) {
	q := r.Builder().
		Select(r.selectCols...).
		From(medicinesTable).
		OrderBy("shop_id", "expiry_date ASC")
	return r.selectMany(ctx, q)
}

// FindByCategory lists the shop's batches in one alert category.
func (r *MedicineRepo) FindByCategory(ctx context.Context, shopID id.ID, cq medicine.CategoryQuery) ([]*medicine.Medicine, error) {
	q, err := r.categoryQuery(shopID, cq)
	if err != nil {
		return nil, err
	}
	q = q.OrderBy("expiry_date ASC", "name ASC")
	if cq.Limit > 0 {
		q = q.Limit(uint64(cq.Limit))
	}
	return r.selectMany(ctx, q)
}

// CountByCategory counts the shop's batches in one alert category.
func (r *MedicineRepo) CountByCategory(ctx context.Context, shopID id.ID, cq medicine.CategoryQuery) (int, error) {
	q, err := r.categoryQuery(shopID, cq)
	if err != nil {
		return 0, err
	}
	n, err := r.count(ctx, q)
	return int(n), err
}

// categoryQuery mirrors the Medicine alert predicates.
func (r *MedicineRepo) categoryQuery(shopID id.ID, cq medicine.CategoryQuery) (squirrel.SelectBuilder, error) {
	today := types.DateOf(cq.Today)
	until := types.AddDays(today, cq.ExpiryWindowDays)
	q := r.baseSelect(shopID)

	switch cq.Category {
	case medicine.CategoryLowStock:
		q = q.Where(squirrel.LtOrEq{"stock_packets": cq.LowStockThreshold}).
			Where(squirrel.GtOrEq{"expiry_date": today})
	case medicine.CategoryExpired:
		q = q.Where(squirrel.Lt{"expiry_date": today})
		if cq.RequireStock {
			q = q.Where(hasStock)
		}
	case medicine.CategoryExpiringSoon:
		q = q.Where(squirrel.GtOrEq{"expiry_date": today}).
			Where(squirrel.LtOrEq{"expiry_date": until}).
			Where(squirrel.Gt{"stock_packets": 0})
	case medicine.CategoryReturnCandidate:
		q = q.Where(squirrel.LtOrEq{"expiry_date": until}).
			Where(hasStock)
	default:
		return q, fmt.Errorf("unknown medicine category %q", cq.Category)
	}
	return q, nil
}
