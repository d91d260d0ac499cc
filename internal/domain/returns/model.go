// Package returns records stock sent back to suppliers.
package returns

import (
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
)

// Reason for a return.
type Reason string

const (
	ReasonExpired  Reason = "Expired"
	ReasonDamaged  Reason = "Damaged"
	ReasonRecalled Reason = "Recalled"
	ReasonOther    Reason = "Other"
)

// ParseReason accepts any casing; empty means Expired.
func ParseReason(s string) (Reason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expired":
		return ReasonExpired, nil
	case "damaged":
		return ReasonDamaged, nil
	case "recalled":
		return ReasonRecalled, nil
	case "other":
		return ReasonOther, nil
	}
	return "", apperror.NewValidation("unsupported return reason").
		WithDetail("field", "reason").
		WithDetail("value", s)
}

// Return is an insert-only record of stock removed from a batch.
type Return struct {
	ID               id.ID     `db:"id" json:"id"`
	ShopID           id.ID     `db:"shop_id" json:"shopId"`
	MedicineID       id.ID     `db:"medicine_id" json:"medicineId"`
	MedicineName     string    `db:"medicine_name" json:"medicineName"`
	BatchNumber      string    `db:"batch_number" json:"batchNumber,omitempty"`
	PackagesReturned int       `db:"packages_returned" json:"packagesReturned"`
	LooseReturned    int       `db:"loose_returned" json:"looseReturned"`
	Reason           Reason    `db:"reason" json:"reason"`
	ReturnDate       time.Time `db:"return_date" json:"returnDate"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// RecordInput is a return request.
type RecordInput struct {
	MedicineID id.ID
	Packages   int
	Loose      int
	Reason     string
}

// Validate checks quantities. Stock limits are checked against the locked row.
func (in RecordInput) Validate() error {
	if id.IsNil(in.MedicineID) {
		return apperror.NewValidation("medicine is required").WithDetail("field", "medicineId")
	}
	if in.Packages < 0 || in.Loose < 0 {
		return apperror.NewValidation("return quantities cannot be negative")
	}
	if in.Packages == 0 && in.Loose == 0 {
		return apperror.NewValidation("nothing to return").
			WithDetail("packages", in.Packages).
			WithDetail("loose", in.Loose)
	}
	return nil
}
