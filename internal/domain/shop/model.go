// Package shop holds the per-owner shop profile and alert settings.
package shop

import (
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
)

const (
	// DefaultLowStockThreshold is the package count at or below which a batch is low.
	DefaultLowStockThreshold = 10
	// DefaultExpiryThresholdDays is the expiring-soon window.
	DefaultExpiryThresholdDays = 30
)

// Defaults are the thresholds given to new profiles and used for shops without one.
type Defaults struct {
	LowStockThreshold   int
	ExpiryThresholdDays int
}

// BuiltinDefaults returns the compiled-in thresholds.
func BuiltinDefaults() Defaults {
	return Defaults{
		LowStockThreshold:   DefaultLowStockThreshold,
		ExpiryThresholdDays: DefaultExpiryThresholdDays,
	}
}

// Profile is the shop run by one owner account. ID is the owner's user id.
type Profile struct {
	ID                  id.ID     `db:"id" json:"id"`
	ShopName            string    `db:"shop_name" json:"shopName"`
	OwnerName           string    `db:"owner_name" json:"ownerName"`
	Phone               string    `db:"phone" json:"phone,omitempty"`
	Address             string    `db:"address" json:"address,omitempty"`
	City                string    `db:"city" json:"city,omitempty"`
	State               string    `db:"state" json:"state,omitempty"`
	Pincode             string    `db:"pincode" json:"pincode,omitempty"`
	GSTIN               string    `db:"gstin" json:"gstin,omitempty"`
	DrugLicense         string    `db:"drug_license" json:"drugLicense,omitempty"`
	LowStockThreshold   int       `db:"low_stock_threshold" json:"lowStockThreshold"`
	ExpiryThresholdDays int       `db:"expiry_threshold_days" json:"expiryThresholdDays"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProfile creates a profile with thresholds resolved from defaults.
func NewProfile(ownerID id.ID, shopName, ownerName string, d Defaults) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:                  ownerID,
		ShopName:            strings.TrimSpace(shopName),
		OwnerName:           strings.TrimSpace(ownerName),
		LowStockThreshold:   d.LowStockThreshold,
		ExpiryThresholdDays: d.ExpiryThresholdDays,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Normalize trims display fields.
func (p *Profile) Normalize() {
	p.ShopName = strings.TrimSpace(p.ShopName)
	p.OwnerName = strings.TrimSpace(p.OwnerName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.Pincode = strings.TrimSpace(p.Pincode)
	p.GSTIN = strings.ToUpper(strings.TrimSpace(p.GSTIN))
	p.DrugLicense = strings.TrimSpace(p.DrugLicense)
}

// Validate checks the alert thresholds.
func (p *Profile) Validate() error {
	if p.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}
	if p.ExpiryThresholdDays < 0 {
		return apperror.NewValidation("expiry threshold cannot be negative").
			WithDetail("field", "expiryThresholdDays")
	}
	return nil
}

// Thresholds returns the profile's settings as Defaults-shaped values.
func (p *Profile) Thresholds() Defaults {
	return Defaults{
		LowStockThreshold:   p.LowStockThreshold,
		ExpiryThresholdDays: p.ExpiryThresholdDays,
	}
}
