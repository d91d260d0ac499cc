package dto

import (
	"time"

	"stocky/internal/domain/shop"
)

// ProfileResponse is the shop profile with its alert settings.
type ProfileResponse struct {
	ID                  string    `json:"id"`
	ShopName            string    `json:"shopName"`
	OwnerName           string    `json:"ownerName"`
	Phone               string    `json:"phone"`
	Address             string    `json:"address"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	Pincode             string    `json:"pincode"`
	GSTIN               string    `json:"gstin"`
	DrugLicense         string    `json:"drugLicense"`
	LowStockThreshold   int       `json:"lowStockThreshold"`
	ExpiryThresholdDays int       `json:"expiryThresholdDays"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// FromProfile creates a ProfileResponse.
func FromProfile(p *shop.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                  p.ID.String(),
		ShopName:            p.ShopName,
		OwnerName:           p.OwnerName,
		Phone:               p.Phone,
		Address:             p.Address,
		City:                p.City,
		State:               p.State,
		Pincode:             p.Pincode,
		GSTIN:               p.GSTIN,
		DrugLicense:         p.DrugLicense,
		LowStockThreshold:   p.LowStockThreshold,
		ExpiryThresholdDays: p.ExpiryThresholdDays,
		UpdatedAt:           p.UpdatedAt,
	}
}

// UpdateProfileRequest replaces the profile. Thresholds are required so
// that an omitted field is never read as zero.
type UpdateProfileRequest struct {
	ShopName            string `json:"shopName"`
	OwnerName           string `json:"ownerName"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	Pincode             string `json:"pincode"`
	GSTIN               string `json:"gstin"`
	DrugLicense         string `json:"drugLicense"`
	LowStockThreshold   *int   `json:"lowStockThreshold" binding:"required"`
	ExpiryThresholdDays *int   `json:"expiryThresholdDays" binding:"required"`
}

// ToProfile converts to the domain profile.
func (r UpdateProfileRequest) ToProfile() *shop.Profile {
	return &shop.Profile{
		ShopName:            r.ShopName,
		OwnerName:           r.OwnerName,
		Phone:               r.Phone,
		Address:             r.Address,
		City:                r.City,
		State:               r.State,
		Pincode:             r.Pincode,
		GSTIN:               r.GSTIN,
		DrugLicense:         r.DrugLicense,
		LowStockThreshold:   *r.LowStockThreshold,
		ExpiryThresholdDays: *r.ExpiryThresholdDays,
	}
}
