package dto

import (
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/types"
	"stocky/internal/domain/medicine"
)

// MedicineRequest creates or updates a batch. Dates are YYYY-MM-DD.
type MedicineRequest struct {
	Name            string      `json:"name" binding:"required"`
	Composition     string      `json:"composition"`
	BatchNumber     string      `json:"batchNumber"`
	UnitKind        string      `json:"unitKind"`
	UnitsPerPackage int         `json:"unitsPerPackage"`
	PackageStock    int         `json:"packageStock"`
	LooseStock      int         `json:"looseStock"`
	ManufactureDate string      `json:"manufactureDate"`
	ExpiryDate      string      `json:"expiryDate" binding:"required"`
	MRP             types.Money `json:"mrp"`
	PurchasePrice   types.Money `json:"purchasePrice"`
	Location        string      `json:"location"`
	Supplier        string      `json:"supplier"`
	Manufacturer    string      `json:"manufacturer"`

	// Version is the version the client read; required on update.
	Version int `json:"version"`
}

// ToModel converts to the domain batch.
func (r MedicineRequest) ToModel() (*medicine.Medicine, error) {
	expiry, err := ParseDate("expiryDate", r.ExpiryDate)
	if err != nil {
		return nil, err
	}

	m := &medicine.Medicine{
		Name:            r.Name,
		Composition:     r.Composition,
		BatchNumber:     r.BatchNumber,
		UnitKind:        medicine.UnitKind(r.UnitKind),
		UnitsPerPackage: r.UnitsPerPackage,
		PackageStock:    r.PackageStock,
		LooseStock:      r.LooseStock,
		ExpiryDate:      expiry,
		MRP:             r.MRP,
		PurchasePrice:   r.PurchasePrice,
		Location:        r.Location,
		Supplier:        r.Supplier,
		Manufacturer:    r.Manufacturer,
		Version:         r.Version,
	}
	if strings.TrimSpace(r.ManufactureDate) != "" {
		mfg, err := ParseDate("manufactureDate", r.ManufactureDate)
		if err != nil {
			return nil, err
		}
		m.ManufactureDate = &mfg
	}
	return m, nil
}

// ParseDate reads a YYYY-MM-DD date. A full timestamp is cut to its date part.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(types.DateLayout) {
		s = s[:len(types.DateLayout)]
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return d, nil
}

// MedicineResponse is a batch with dates rendered as YYYY-MM-DD.
type MedicineResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Composition     string      `json:"composition,omitempty"`
	BatchNumber     string      `json:"batchNumber,omitempty"`
	UnitKind        string      `json:"unitKind"`
	UnitsPerPackage int         `json:"unitsPerPackage"`
	PackageStock    int         `json:"packageStock"`
	LooseStock      int         `json:"looseStock"`
	ManufactureDate string      `json:"manufactureDate,omitempty"`
	ExpiryDate      string      `json:"expiryDate"`
	MRP             types.Money `json:"mrp"`
	PurchasePrice   types.Money `json:"purchasePrice"`
	Location        string      `json:"location,omitempty"`
	Supplier        string      `json:"supplier,omitempty"`
	Manufacturer    string      `json:"manufacturer,omitempty"`
	Version         int         `json:"version"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// FromMedicine creates a MedicineResponse.
func FromMedicine(m *medicine.Medicine) MedicineResponse {
	resp := MedicineResponse{
		ID:              m.ID.String(),
		Name:            m.Name,
		Composition:     m.Composition,
		BatchNumber:     m.BatchNumber,
		UnitKind:        string(m.UnitKind),
		UnitsPerPackage: m.UnitsPerPackage,
		PackageStock:    m.PackageStock,
		LooseStock:      m.LooseStock,
		ExpiryDate:      types.FormatDate(m.ExpiryDate),
		MRP:             m.MRP,
		PurchasePrice:   m.PurchasePrice,
		Location:        m.Location,
		Supplier:        m.Supplier,
		Manufacturer:    m.Manufacturer,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ManufactureDate != nil {
		resp.ManufactureDate = types.FormatDate(*m.ManufactureDate)
	}
	return resp
}

// FromMedicines maps a slice of batches.
func FromMedicines(ms []*medicine.Medicine) []MedicineResponse {
	out := make([]MedicineResponse, len(ms))
	for i, m := range ms {
		out[i] = FromMedicine(m)
	}
	return out
}
