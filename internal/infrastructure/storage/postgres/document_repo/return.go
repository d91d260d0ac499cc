package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocky/internal/core/id"
	"stocky/internal/domain"
	"stocky/internal/domain/returns"
	"stocky/internal/infrastructure/storage/postgres"
)

const returnsTable = "returns"

// ReturnRepo implements returns.Repository. Returns are insert-only.
type ReturnRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

var _ returns.Repository = (*ReturnRepo)(nil)

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[returns.Return](),
	}
}

// Create inserts a return record.
func (r *ReturnRepo) Create(ctx context.Context, rec *returns.Return) error {
	sql, args, err := postgres.Builder().
		Insert(returnsTable).
		SetMap(postgres.StructToMap(rec)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

func (r *ReturnRepo) listQuery(shopID id.ID, search string) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(r.cols...).
		From(returnsTable).
		Where(squirrel.Eq{"shop_id": shopID})
	if search != "" {
		pattern := postgres.LikePattern(search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"medicine_name": pattern},
			squirrel.ILike{"batch_number": pattern},
		})
	}
	return q
}

// List returns records newest first.
func (r *ReturnRepo) List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*returns.Return], error) {
	result := domain.ListResult[*returns.Return]{Limit: filter.Limit, Offset: filter.Offset, Items: []*returns.Return{}}
	q := r.listQuery(shopID, filter.Search)
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count returns: %w", err)
	}

	sql, args, err := postgres.Paged(q.OrderBy("return_date DESC", "created_at DESC"), filter.Limit, filter.Offset).ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list returns: %w", err)
	}
	return result, nil
}
