package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/billing"
)

type stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type tagged struct {
	stamped
	ID    id.ID  `db:"id"`
	Name  string `db:"name"`
	Notes string `db:"-"`
	Plain string
}

func TestExtractDBColumns_WalksEmbedded(t *testing.T) {
	cols := ExtractDBColumns[tagged]()

	assert.Equal(t, []string{"created_at", "id", "name"}, cols)
}

func TestExtractDBColumns_Omit(t *testing.T) {
	cols := ExtractDBColumns[billing.LineItem]("id")

	assert.Equal(t, []string{
		"bill_id", "line_no", "medicine_id", "medicine_name", "batch_number",
		"expiry_date", "quantity", "selling_price", "mrp",
	}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	v := tagged{stamped: stamped{CreatedAt: now}, ID: id.New(), Name: "Paracetamol", Notes: "x"}

	m := StructToMap(&v)

	assert.Len(t, m, 3)
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, v.ID, m["id"])
	assert.Equal(t, "Paracetamol", m["name"])
}

func TestStructValues_FollowsColumnOrder(t *testing.T) {
	li := billing.LineItem{
		LineNo:       2,
		MedicineName: "Cough Syrup",
		Quantity:     3,
		SellingPrice: types.MustMoney("99.50"),
	}

	row := StructValues(li, []string{"quantity", "medicine_name", "line_no"})

	assert.Equal(t, []any{3, "Cough Syrup", 2}, row)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}

func TestCopyValue_Decimal(t *testing.T) {
	n, ok := copyValue(types.MustMoney("99.50")).(pgtype.Numeric)

	assert.True(t, ok)
	assert.True(t, n.Valid)
	assert.Equal(t, "9950", n.Int.String())
	assert.Equal(t, int32(-2), n.Exp)
	assert.Equal(t, "x", copyValue("x"))
}
