// Package export writes sales data to spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"stocky/internal/domain/billing"
)

const (
	// ContentType of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	billsSheet = "Bills"
	itemsSheet = "Items"
)

var (
	billHeaders = []any{"Invoice", "Date", "Customer", "Phone", "Doctor", "Payment", "Status", "Amount", "Profit"}
	itemHeaders = []any{"Invoice", "Line", "Medicine", "Batch", "Expiry", "Qty", "Price", "MRP", "Amount"}
)

// Sales writes one row per bill on "Bills" and one row per line item on
// "Items", with times rendered in loc.
func Sales(bills []*billing.Bill, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", billsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("create items sheet: %w", err)
	}

	if err := setRow(f, billsSheet, 1, billHeaders); err != nil {
		return nil, err
	}
	if err := setRow(f, itemsSheet, 1, itemHeaders); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, b := range bills {
		err := setRow(f, billsSheet, i+2, []any{
			b.InvoiceNumber,
			b.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			b.CustomerName,
			b.CustomerPhone,
			b.DoctorName,
			string(b.PaymentMode),
			string(b.Status),
			b.TotalAmount.InexactFloat64(),
			b.TotalProfit.InexactFloat64(),
		})
		if err != nil {
			return nil, err
		}

		for _, li := range b.Items {
			err := setRow(f, itemsSheet, itemRow, []any{
				b.InvoiceNumber,
				li.LineNo,
				li.MedicineName,
				li.BatchNumber,
				li.ExpiryDate.Format("2006-01-02"),
				li.Quantity,
				li.SellingPrice.InexactFloat64(),
				li.MRP.InexactFloat64(),
				li.Amount().InexactFloat64(),
			})
			if err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
