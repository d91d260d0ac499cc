// Package medicine holds the stock catalog: one row per medicine batch.
package medicine

import (
	"context"
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
)

// UnitKind says how a batch is counted.
type UnitKind string

const (
	// KindStrip batches are packages of UnitsPerPackage units that may be opened.
	KindStrip UnitKind = "Strip"
	// KindUnit batches are indivisible (bottles, tubes).
	KindUnit UnitKind = "Unit"
)

// Medicine is one stock batch of a medicine owned by a shop.
type Medicine struct {
	ID              id.ID       `db:"id" json:"id"`
	ShopID          id.ID       `db:"shop_id" json:"shopId"`
	Name            string      `db:"name" json:"name"`
	Composition     string      `db:"composition" json:"composition,omitempty"`
	BatchNumber     string      `db:"batch_number" json:"batchNumber,omitempty"`
	UnitKind        UnitKind    `db:"unit_kind" json:"unitKind"`
	UnitsPerPackage int         `db:"units_per_package" json:"unitsPerPackage"`
	PackageStock    int         `db:"stock_packets" json:"packageStock"`
	LooseStock      int         `db:"stock_loose" json:"looseStock"`
	ManufactureDate *time.Time  `db:"manufacture_date" json:"manufactureDate,omitempty"`
	ExpiryDate      time.Time   `db:"expiry_date" json:"expiryDate"`
	MRP             types.Money `db:"mrp" json:"mrp"`
	PurchasePrice   types.Money `db:"purchase_price" json:"purchasePrice"`
	Location        string      `db:"location" json:"location,omitempty"`
	Supplier        string      `db:"supplier" json:"supplier,omitempty"`
	Manufacturer    string      `db:"manufacturer" json:"manufacturer,omitempty"`
	Version         int         `db:"version" json:"version"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// ParseUnitKind accepts any casing; empty means Strip.
func ParseUnitKind(s string) (UnitKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strip":
		return KindStrip, true
	case "unit":
		return KindUnit, true
	default:
		return "", false
	}
}

// Normalize is the single input-normalization step applied before
// validation and storage.
func (m *Medicine) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Composition = strings.TrimSpace(m.Composition)
	m.BatchNumber = strings.ToUpper(strings.TrimSpace(m.BatchNumber))
	m.Location = strings.TrimSpace(m.Location)
	m.Supplier = strings.TrimSpace(m.Supplier)
	m.Manufacturer = strings.TrimSpace(m.Manufacturer)

	if kind, ok := ParseUnitKind(string(m.UnitKind)); ok {
		m.UnitKind = kind
	}
	if m.UnitKind == KindUnit {
		m.UnitsPerPackage = 1
		m.LooseStock = 0
	}
	if m.UnitsPerPackage == 0 {
		m.UnitsPerPackage = 1
	}

	if !m.ExpiryDate.IsZero() {
		m.ExpiryDate = types.DateOf(m.ExpiryDate)
	}
	if m.ManufactureDate != nil {
		d := types.DateOf(*m.ManufactureDate)
		m.ManufactureDate = &d
	}
}

// Validate checks invariants. Call Normalize first.
func (m *Medicine) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if _, ok := ParseUnitKind(string(m.UnitKind)); !ok {
		return apperror.NewValidation("unit kind must be Strip or Unit").
			WithDetail("field", "unitKind").
			WithDetail("value", m.UnitKind)
	}
	if m.ExpiryDate.IsZero() {
		return apperror.NewValidation("expiry date is required").WithDetail("field", "expiryDate")
	}
	if m.UnitsPerPackage < 1 {
		return apperror.NewValidation("units per package must be at least 1").WithDetail("field", "unitsPerPackage")
	}
	if m.PackageStock < 0 || m.LooseStock < 0 {
		return apperror.NewValidation("stock cannot be negative").
			WithDetail("packageStock", m.PackageStock).
			WithDetail("looseStock", m.LooseStock)
	}
	if m.UnitKind == KindUnit && (m.LooseStock != 0 || m.UnitsPerPackage != 1) {
		return apperror.NewValidation("unit-counted medicines have no loose stock").WithDetail("field", "looseStock")
	}
	if m.MRP.IsNegative() || m.PurchasePrice.IsNegative() {
		return apperror.NewValidation("prices cannot be negative")
	}
	if m.ManufactureDate != nil && m.ManufactureDate.After(m.ExpiryDate) {
		return apperror.NewValidation("manufacture date is after expiry date").WithDetail("field", "manufactureDate")
	}
	return nil
}

// TotalUnits is the stock expressed in base units.
func (m *Medicine) TotalUnits() int {
	return m.PackageStock*m.UnitsPerPackage + m.LooseStock
}

// HasStock reports whether any package or loose unit is on hand.
func (m *Medicine) HasStock() bool {
	return m.PackageStock > 0 || m.LooseStock > 0
}

// Deduct removes units sold: loose units first, then whole packages are
// opened and the remainder goes back to loose stock.
func (m *Medicine) Deduct(units int) error {
	if units <= 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("quantity", units)
	}
	if units > m.TotalUnits() {
		return apperror.NewInsufficientStock(m.ID.String(), units, m.TotalUnits()).
			WithDetail("name", m.Name)
	}

	if units <= m.LooseStock {
		m.LooseStock -= units
		return nil
	}

	need := units - m.LooseStock
	per := m.UnitsPerPackage
	if per < 1 {
		per = 1
	}
	opened := (need + per - 1) / per
	m.PackageStock -= opened
	m.LooseStock = opened*per - need
	return nil
}

// RemovePackaged takes whole packages and loose units out of stock, as a return does.
func (m *Medicine) RemovePackaged(packages, loose int) error {
	if packages < 0 || loose < 0 {
		return apperror.NewValidation("return quantities cannot be negative")
	}
	if packages > m.PackageStock {
		return apperror.NewInsufficientStock(m.ID.String(), packages, m.PackageStock).
			WithDetail("unit", "package")
	}
	if loose > m.LooseStock {
		return apperror.NewInsufficientStock(m.ID.String(), loose, m.LooseStock).
			WithDetail("unit", "loose")
	}
	m.PackageStock -= packages
	m.LooseStock -= loose
	return nil
}

// --- alert predicates; the SQL in the storage layer mirrors these ---

// IsLowStock: package stock at or below threshold, not yet expired.
func (m *Medicine) IsLowStock(threshold int, today time.Time) bool {
	return m.PackageStock <= threshold && !m.ExpiryDate.Before(today)
}

// IsExpired: expiry strictly before today.
func (m *Medicine) IsExpired(today time.Time) bool {
	return m.ExpiryDate.Before(today)
}

// IsExpiringSoon: today <= expiry <= today+days with packages on hand.
func (m *Medicine) IsExpiringSoon(today time.Time, days int) bool {
	until := types.AddDays(today, days)
	return m.PackageStock > 0 && !m.ExpiryDate.Before(today) && !m.ExpiryDate.After(until)
}
