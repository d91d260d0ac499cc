package dto

import (
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/returns"
)

// RecordReturnRequest sends stock of a batch back.
type RecordReturnRequest struct {
	MedicineID string `json:"medicineId" binding:"required"`
	Packages   int    `json:"packages"`
	Loose      int    `json:"loose"`
	Reason     string `json:"reason"`
}

// ToInput converts to the domain input.
func (r RecordReturnRequest) ToInput() (returns.RecordInput, error) {
	medID, err := id.Parse(r.MedicineID)
	if err != nil {
		return returns.RecordInput{}, apperror.NewValidation("invalid medicine id").
			WithDetail("field", "medicineId")
	}
	return returns.RecordInput{
		MedicineID: medID,
		Packages:   r.Packages,
		Loose:      r.Loose,
		Reason:     r.Reason,
	}, nil
}

// ReturnResponse is a recorded return.
type ReturnResponse struct {
	ID               string    `json:"id"`
	MedicineID       string    `json:"medicineId"`
	MedicineName     string    `json:"medicineName"`
	BatchNumber      string    `json:"batchNumber,omitempty"`
	PackagesReturned int       `json:"packagesReturned"`
	LooseReturned    int       `json:"looseReturned"`
	Reason           string    `json:"reason"`
	ReturnDate       string    `json:"returnDate"`
	CreatedAt        time.Time `json:"createdAt"`
}

// FromReturn creates a ReturnResponse.
func FromReturn(r *returns.Return) ReturnResponse {
	return ReturnResponse{
		ID:               r.ID.String(),
		MedicineID:       r.MedicineID.String(),
		MedicineName:     r.MedicineName,
		BatchNumber:      r.BatchNumber,
		PackagesReturned: r.PackagesReturned,
		LooseReturned:    r.LooseReturned,
		Reason:           string(r.Reason),
		ReturnDate:       types.FormatDate(r.ReturnDate),
		CreatedAt:        r.CreatedAt,
	}
}
