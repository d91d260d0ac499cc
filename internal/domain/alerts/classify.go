// Package alerts classifies a shop's stock into low-stock, expired and
// expiring-soon notifications.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/medicine"
)

// Kind is the notification category.
type Kind string

const (
	KindLowStock     Kind = "low-stock"
	KindExpired      Kind = "expired"
	KindExpiringSoon Kind = "expiring-soon"
)

// Severity tags an item for display.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// List caps for the notification list. Counts are never capped.
const (
	LowStockLimit     = 5
	ExpiredLimit      = 5
	ExpiringSoonLimit = 10
)

// Item is one derived notification. Only ID varies between identical scans.
type Item struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Title        string   `json:"title"`
	MedicineID   id.ID    `json:"medicineId"`
	MedicineName string   `json:"medicineName"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	ExpiryDate   string   `json:"expiryDate"`
	Stock        int      `json:"stock"`
}

// Rules are a shop's thresholds plus the variant switches.
type Rules struct {
	LowStockThreshold   int
	ExpiryThresholdDays int
	// ExpiredRequiresStock drops expired batches with nothing on hand
	// (dashboard and digest); the notification list keeps them.
	ExpiredRequiresStock bool
}

// Counts are uncapped category sizes.
type Counts struct {
	LowStock     int      `json:"lowStock"`
	Expired      int      `json:"expired"`
	ExpiringSoon int      `json:"expiringSoon"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Total sums the three categories.
func (c Counts) Total() int {
	return c.LowStock + c.Expired + c.ExpiringSoon
}

// Matches reports which categories m falls into under rules.
func Matches(m *medicine.Medicine, rules Rules, today time.Time) (lowStock, expired, expiringSoon bool) {
	lowStock = m.IsLowStock(rules.LowStockThreshold, today)
	expired = m.IsExpired(today) && (!rules.ExpiredRequiresStock || m.HasStock())
	expiringSoon = m.IsExpiringSoon(today, rules.ExpiryThresholdDays)
	return
}

// Classify runs the rules over a full list of batches and returns the
// capped notification list: low-stock, then expired, then expiring-soon,
// each by expiry date ascending.
func Classify(batches []*medicine.Medicine, rules Rules, today time.Time, now time.Time) []Item {
	var low, expired, soon []*medicine.Medicine
	for _, m := range batches {
		l, e, s := Matches(m, rules, today)
		if l {
			low = append(low, m)
		}
		if e {
			expired = append(expired, m)
		}
		if s {
			soon = append(soon, m)
		}
	}

	items := make([]Item, 0, LowStockLimit+ExpiredLimit+ExpiringSoonLimit)
	items = appendItems(items, KindLowStock, capList(low, LowStockLimit), rules, now)
	items = appendItems(items, KindExpired, capList(expired, ExpiredLimit), rules, now)
	items = appendItems(items, KindExpiringSoon, capList(soon, ExpiringSoonLimit), rules, now)
	return items
}

// Count returns uncapped category sizes for a full list of batches.
func Count(batches []*medicine.Medicine, rules Rules, today time.Time) Counts {
	var c Counts
	for _, m := range batches {
		l, e, s := Matches(m, rules, today)
		if l {
			c.LowStock++
		}
		if e {
			c.Expired++
		}
		if s {
			c.ExpiringSoon++
		}
	}
	return c
}

// NewItem renders the notification for one batch.
func NewItem(kind Kind, m *medicine.Medicine, rules Rules, now time.Time) Item {
	expiry := types.FormatDate(m.ExpiryDate)
	item := Item{
		ID:           fmt.Sprintf("%s-%s-%d", kind, m.ID, now.UnixMilli()),
		Kind:         kind,
		MedicineID:   m.ID,
		MedicineName: m.Name,
		ExpiryDate:   expiry,
		Stock:        m.PackageStock,
	}

	switch kind {
	case KindLowStock:
		item.Title = "Restock Needed"
		item.Severity = SeverityWarning
		item.Message = fmt.Sprintf("%s is below limit (%d / %d)", m.Name, m.PackageStock, rules.LowStockThreshold)
	case KindExpired:
		item.Title = "EXPIRED"
		item.Severity = SeverityError
		item.Message = fmt.Sprintf("%s expired on %s", m.Name, expiry)
	case KindExpiringSoon:
		item.Title = "Expiring Soon"
		item.Severity = SeverityWarning
		item.Message = fmt.Sprintf("%s expires on %s", m.Name, expiry)
	}
	return item
}

func appendItems(items []Item, kind Kind, batches []*medicine.Medicine, rules Rules, now time.Time) []Item {
	for _, m := range batches {
		items = append(items, NewItem(kind, m, rules, now))
	}
	return items
}

// capList sorts by expiry (then name) and keeps the first n.
func capList(batches []*medicine.Medicine, n int) []*medicine.Medicine {
	sorted := make([]*medicine.Medicine, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExpiryDate.Equal(sorted[j].ExpiryDate) {
			return sorted[i].ExpiryDate.Before(sorted[j].ExpiryDate)
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
