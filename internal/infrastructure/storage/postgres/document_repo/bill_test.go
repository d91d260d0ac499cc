package document_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/id"
)

func TestBillListQuery_Search(t *testing.T) {
	repo := NewBillRepo(nil)
	shopID := id.New()

	sql, args, err := repo.listQuery(shopID, "INV-2025").ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT id, shop_id, invoice_number, customer_name"), sql)
	assert.True(t, strings.HasSuffix(sql,
		"FROM bills WHERE shop_id = $1 AND (invoice_number ILIKE $2 OR customer_name ILIKE $3)"), sql)
	assert.Equal(t, []any{shopID, "%INV-2025%", "%INV-2025%"}, args)
	assert.NotContains(t, sql, "items")
}

func TestBillRangeQuery_HalfOpen(t *testing.T) {
	repo := NewBillRepo(nil)
	shopID := id.New()
	from := time.Date(2025, 3, 3, 18, 30, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	sql, args, err := repo.summaryQuery(shopID, from, to).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM bills WHERE shop_id = $1 AND created_at >= $2 AND created_at < $3",
		sql)
	assert.Equal(t, []any{shopID, from, to}, args)

	sql, _, err = repo.rangeQuery(shopID, from, to).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "WHERE shop_id = $1 AND created_at >= $2 AND created_at < $3"), sql)
}

func TestBillItemColumns(t *testing.T) {
	repo := NewBillRepo(nil)

	assert.Equal(t, []string{
		"id", "bill_id", "line_no", "medicine_id", "medicine_name", "batch_number",
		"expiry_date", "quantity", "selling_price", "mrp",
	}, repo.itemCols)
	assert.NotContains(t, repo.billCols, "items")
}

func TestReturnListQuery(t *testing.T) {
	repo := NewReturnRepo(nil)
	shopID := id.New()

	sql, args, err := repo.listQuery(shopID, "").ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "FROM returns WHERE shop_id = $1"), sql)
	assert.Equal(t, []any{shopID}, args)

	sql, _, err = repo.listQuery(shopID, "dolo").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "(medicine_name ILIKE $2 OR batch_number ILIKE $3)")
}
