// Package document_repo provides PostgreSQL implementations for sales
// documents: bills with their line items, and returns.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/billing"
	"stocky/internal/infrastructure/storage/postgres"
)

const (
	billsTable     = "bills"
	billItemsTable = "bill_items"
)

// BillRepo implements billing.Repository.
type BillRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
	billCols  []string
	itemCols  []string
}

var _ billing.Repository = (*BillRepo)(nil)

// NewBillRepo creates a new bill repository.
func NewBillRepo(txManager *postgres.TxManager) *BillRepo {
	return &BillRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
		billCols:  postgres.ExtractDBColumns[billing.Bill](),
		itemCols:  postgres.ExtractDBColumns[billing.LineItem](),
	}
}

// Create inserts the bill row, then copies the items. Must run inside a transaction.
func (r *BillRepo) Create(ctx context.Context, bill *billing.Bill) error {
	sql, args, err := postgres.Builder().
		Insert(billsTable).
		SetMap(postgres.StructToMap(bill)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	n, err := postgres.CopyStructs(ctx, r.batch, billItemsTable, r.itemCols, bill.Items)
	if err != nil {
		return err
	}
	if int(n) != len(bill.Items) {
		return fmt.Errorf("copy bill items: wrote %d of %d rows", n, len(bill.Items))
	}
	return nil
}

// GetByID returns the bill with items.
func (r *BillRepo) GetByID(ctx context.Context, shopID, billID id.ID) (*billing.Bill, error) {
	sql, args, err := r.selectBills(shopID).Where(squirrel.Eq{"id": billID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var bill billing.Bill
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &bill, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bill", billID.String())
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}

	items, err := r.items(ctx, []id.ID{bill.ID})
	if err != nil {
		return nil, err
	}
	bill.Items = items[bill.ID]
	return &bill, nil
}

func (r *BillRepo) selectBills(shopID id.ID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.billCols...).
		From(billsTable).
		Where(squirrel.Eq{"shop_id": shopID})
}

func (r *BillRepo) listQuery(shopID id.ID, search string) squirrel.SelectBuilder {
	q := r.selectBills(shopID)
	if search != "" {
		pattern := postgres.LikePattern(search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_number": pattern},
			squirrel.ILike{"customer_name": pattern},
		})
	}
	return q
}

// List returns bills newest first, without items.
func (r *BillRepo) List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*billing.Bill], error) {
	result := domain.ListResult[*billing.Bill]{Limit: filter.Limit, Offset: filter.Offset, Items: []*billing.Bill{}}
	q := r.listQuery(shopID, filter.Search)
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count bills: %w", err)
	}

	sql, args, err := postgres.Paged(q.OrderBy("created_at DESC", "invoice_number DESC"), filter.Limit, filter.Offset).ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list bills: %w", err)
	}
	return result, nil
}

func (r *BillRepo) rangeQuery(shopID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return r.selectBills(shopID).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to})
}

// ListRange returns bills created in [from, to) with items, oldest first.
func (r *BillRepo) ListRange(ctx context.Context, shopID id.ID, from, to time.Time) ([]*billing.Bill, error) {
	sql, args, err := r.rangeQuery(shopID, from, to).OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	bills := []*billing.Bill{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &bills, sql, args...); err != nil {
		return nil, fmt.Errorf("list bills in range: %w", err)
	}
	if len(bills) == 0 {
		return bills, nil
	}

	ids := make([]id.ID, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		b.Items = items[b.ID]
	}
	return bills, nil
}

// items loads the line items of the given bills, grouped by bill.
func (r *BillRepo) items(ctx context.Context, billIDs []id.ID) (map[id.ID][]billing.LineItem, error) {
	sql, args, err := postgres.Builder().
		Select(r.itemCols...).
		From(billItemsTable).
		Where(squirrel.Eq{"bill_id": billIDs}).
		OrderBy("bill_id", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var rows []billing.LineItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}

	grouped := make(map[id.ID][]billing.LineItem, len(billIDs))
	for _, li := range rows {
		grouped[li.BillID] = append(grouped[li.BillID], li)
	}
	return grouped, nil
}

func (r *BillRepo) summaryQuery(shopID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return postgres.Builder().
		Select("COALESCE(SUM(total_amount), 0)", "COUNT(*)").
		From(billsTable).
		Where(squirrel.Eq{"shop_id": shopID}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to})
}

// SalesSummary totals bills created in [from, to).
func (r *BillRepo) SalesSummary(ctx context.Context, shopID id.ID, from, to time.Time) (types.Money, int, error) {
	sql, args, err := r.summaryQuery(shopID, from, to).ToSql()
	if err != nil {
		return types.Zero(), 0, fmt.Errorf("build summary query: %w", err)
	}

	var (
		total types.Money
		count int
	)
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total, &count); err != nil {
		return types.Zero(), 0, fmt.Errorf("sales summary: %w", err)
	}
	return total, count, nil
}

// Delete removes the bill; items cascade.
func (r *BillRepo) Delete(ctx context.Context, shopID, billID id.ID) error {
	sql, args, err := postgres.Builder().
		Delete(billsTable).
		Where(squirrel.Eq{"id": billID, "shop_id": shopID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("bill", billID.String())
	}
	return nil
}
