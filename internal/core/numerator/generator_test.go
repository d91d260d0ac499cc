package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stocky/internal/core/id"
)

func TestFormat(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, "INV-20240101-0905-001", Format(InvoiceConfig(), at, 1))
	assert.Equal(t, "INV-20240101-0905-042", Format(InvoiceConfig(), at, 42))
	// wider serials are not truncated
	assert.Equal(t, "INV-20240101-0905-1000", Format(InvoiceConfig(), at, 1000))
}

func TestNextSerial(t *testing.T) {
	tests := []struct {
		name string
		prev string
		want int64
	}{
		{"no invoice today", "", 1},
		{"same day predecessor", "INV-20240101-0900-001", 2},
		{"double digits", "INV-20240101-0900-099", 100},
		{"malformed suffix", "INV-20240101-0900-XYZ", 1},
		{"too few segments", "INV-7", 1},
		{"legacy four segment prefix", "INV-A-20240101-0900-007", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSerial(tt.prev))
		})
	}
}

func TestNextSerial_ProducesExpectedNumber(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	got := Format(InvoiceConfig(), at, NextSerial("INV-20240101-0900-001"))

	assert.Equal(t, "INV-20240101-0930-002", got)
}

func TestDayKey(t *testing.T) {
	shop := id.MustParse("0190a6f1-0000-7000-8000-000000000001")
	at := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "INV:0190a6f1-0000-7000-8000-000000000001:20240309", DayKey(InvoiceConfig(), shop, at))
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyAtomic, ParseStrategy(""))
	assert.Equal(t, StrategyAtomic, ParseStrategy("atomic"))
	assert.Equal(t, StrategyLastInvoice, ParseStrategy("last-invoice"))
	assert.Equal(t, "last-invoice", StrategyLastInvoice.String())
}
