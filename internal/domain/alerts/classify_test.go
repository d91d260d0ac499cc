package alerts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/id"
	"stocky/internal/domain/medicine"
)

var (
	today = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	now   = time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)
	rules = Rules{LowStockThreshold: 10, ExpiryThresholdDays: 30}
)

func batch(name string, packages int, expiry time.Time) *medicine.Medicine {
	return &medicine.Medicine{
		ID:              id.New(),
		Name:            name,
		UnitKind:        medicine.KindStrip,
		UnitsPerPackage: 10,
		PackageStock:    packages,
		ExpiryDate:      expiry,
	}
}

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func TestClassify_OrderAndMessages(t *testing.T) {
	batches := []*medicine.Medicine{
		batch("Cetirizine", 50, day(20)),
		batch("Amoxicillin", 3, day(200)),
		batch("Ibuprofen", 40, day(-2)),
	}

	items := Classify(batches, rules, today, now)

	require.Len(t, items, 3)
	assert.Equal(t, KindLowStock, items[0].Kind)
	assert.Equal(t, "Amoxicillin is below limit (3 / 10)", items[0].Message)
	assert.Equal(t, SeverityWarning, items[0].Severity)

	assert.Equal(t, KindExpired, items[1].Kind)
	assert.Equal(t, "Ibuprofen expired on 2025-01-08", items[1].Message)
	assert.Equal(t, SeverityError, items[1].Severity)

	assert.Equal(t, KindExpiringSoon, items[2].Kind)
	assert.Equal(t, "Cetirizine expires on 2025-01-30", items[2].Message)
}

func TestClassify_ExpiryTodayIsExpiringSoonNotExpired(t *testing.T) {
	items := Classify([]*medicine.Medicine{batch("Dolo", 20, today)}, rules, today, now)

	require.Len(t, items, 1)
	assert.Equal(t, KindExpiringSoon, items[0].Kind)
}

func TestClassify_ExpiredLowStockIsNotRestockAlert(t *testing.T) {
	items := Classify([]*medicine.Medicine{batch("Dolo", 0, day(-1))}, rules, today, now)

	require.Len(t, items, 1)
	assert.Equal(t, KindExpired, items[0].Kind)
}

func TestClassify_ExpiredRequiresStockVariant(t *testing.T) {
	empty := batch("Dolo", 0, day(-1))
	r := rules
	r.ExpiredRequiresStock = true

	assert.Empty(t, Classify([]*medicine.Medicine{empty}, r, today, now))

	empty.LooseStock = 4
	assert.Len(t, Classify([]*medicine.Medicine{empty}, r, today, now), 1)
}

func TestClassify_CapsSortedByExpiry(t *testing.T) {
	var batches []*medicine.Medicine
	for i := 12; i > 0; i-- {
		batches = append(batches, batch(fmt.Sprintf("Soon %02d", i), 20, day(i)))
	}

	items := Classify(batches, rules, today, now)

	require.Len(t, items, ExpiringSoonLimit)
	assert.Equal(t, "Soon 01", items[0].MedicineName)
	assert.Equal(t, "Soon 10", items[9].MedicineName)
}

func TestCount_Uncapped(t *testing.T) {
	var batches []*medicine.Medicine
	for i := 0; i < 8; i++ {
		batches = append(batches, batch("Low", 1, day(100)))
		batches = append(batches, batch("Old", 5, day(-i-1)))
	}

	c := Count(batches, rules, today)

	assert.Equal(t, 8, c.LowStock)
	assert.Equal(t, 8, c.Expired)
	assert.Equal(t, 0, c.ExpiringSoon)
	assert.Equal(t, 16, c.Total())
}

func TestClassify_Deterministic(t *testing.T) {
	batches := []*medicine.Medicine{
		batch("A", 2, day(5)),
		batch("B", 2, day(-5)),
	}

	first := Classify(batches, rules, today, now)
	second := Classify(batches, rules, today, now.Add(time.Minute))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
		assert.Equal(t, first[i].Message, second[i].Message)
		assert.NotEqual(t, first[i].ID, second[i].ID)
	}
}
