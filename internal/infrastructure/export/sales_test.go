package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stocky/internal/core/types"
	"stocky/internal/domain/billing"
)

func TestSales_WritesBillsAndItems(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	bills := []*billing.Bill{
		{
			InvoiceNumber: "INV-20250304-0930-001",
			CustomerName:  "Asha Rao",
			PaymentMode:   billing.PaymentCash,
			Status:        billing.StatusCompleted,
			TotalAmount:   types.MustMoney("33.75"),
			TotalProfit:   types.MustMoney("6.75"),
			CreatedAt:     time.Date(2025, 3, 4, 4, 0, 0, 0, time.UTC),
			Items: []billing.LineItem{
				{LineNo: 1, MedicineName: "Paracetamol 500mg", BatchNumber: "PCM24A",
					ExpiryDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Quantity: 15,
					SellingPrice: types.MustMoney("2.25"), MRP: types.MustMoney("2.50")},
			},
		},
		{
			InvoiceNumber: "INV-20250304-1015-002",
			CustomerName:  "Walk-in",
			PaymentMode:   billing.PaymentCredit,
			Status:        billing.StatusDue,
			TotalAmount:   types.MustMoney("110"),
			TotalProfit:   types.MustMoney("20"),
			CreatedAt:     time.Date(2025, 3, 4, 4, 45, 0, 0, time.UTC),
		},
	}

	out, err := Sales(bills, ist)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(billsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, []string{"INV-20250304-0930-001", "2025-03-04 09:30", "Asha Rao"}, rows[1][:3])
	assert.Equal(t, "Due", rows[2][6])
	assert.Equal(t, "33.75", rows[1][7])

	items, err := f.GetRows(itemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Paracetamol 500mg", items[1][2])
	assert.Equal(t, "15", items[1][5])
	assert.Equal(t, "33.75", items[1][8])
}

func TestSales_Empty(t *testing.T) {
	out, err := Sales(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(billsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
