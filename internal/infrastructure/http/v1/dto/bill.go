package dto

import (
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/billing"
)

// CreateBillRequest is a checkout.
type CreateBillRequest struct {
	CustomerName  string            `json:"customerName" binding:"required"`
	CustomerPhone string            `json:"customerPhone"`
	DoctorName    string            `json:"doctorName"`
	PaymentMode   string            `json:"paymentMode"`
	Items         []BillLineRequest `json:"items" binding:"required,min=1,dive"`
}

// BillLineRequest is one cart line.
type BillLineRequest struct {
	MedicineID   string      `json:"medicineId" binding:"required"`
	Quantity     int         `json:"quantity" binding:"required,min=1"`
	SellingPrice types.Money `json:"sellingPrice"`
}

// ToInput converts to the domain checkout input.
func (r CreateBillRequest) ToInput() (billing.CreateInput, error) {
	in := billing.CreateInput{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		DoctorName:    r.DoctorName,
		PaymentMode:   r.PaymentMode,
		Lines:         make([]billing.LineInput, len(r.Items)),
	}
	for i, it := range r.Items {
		medID, err := id.Parse(it.MedicineID)
		if err != nil {
			return in, apperror.NewValidation("invalid medicine id").
				WithDetail("line", i+1).
				WithDetail("value", it.MedicineID)
		}
		in.Lines[i] = billing.LineInput{
			MedicineID:   medID,
			Quantity:     it.Quantity,
			SellingPrice: it.SellingPrice,
		}
	}
	return in, nil
}

// BillResponse is a bill, with items when they were loaded.
type BillResponse struct {
	ID             string             `json:"id"`
	InvoiceNumber  string             `json:"invoiceNumber"`
	CustomerName   string             `json:"customerName"`
	CustomerPhone  string             `json:"customerPhone,omitempty"`
	DoctorName     string             `json:"doctorName,omitempty"`
	PaymentMode    string             `json:"paymentMode"`
	Status         string             `json:"status"`
	TotalAmount    types.Money        `json:"totalAmount"`
	TotalProfit    types.Money        `json:"totalProfit"`
	SellerDLNumber string             `json:"sellerDlNumber,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	Items          []BillItemResponse `json:"items,omitempty"`
}

// BillItemResponse is one sold line.
type BillItemResponse struct {
	LineNo       int         `json:"lineNo"`
	MedicineID   string      `json:"medicineId"`
	MedicineName string      `json:"medicineName"`
	BatchNumber  string      `json:"batchNumber,omitempty"`
	ExpiryDate   string      `json:"expiryDate"`
	Quantity     int         `json:"quantity"`
	SellingPrice types.Money `json:"sellingPrice"`
	MRP          types.Money `json:"mrp"`
	Amount       types.Money `json:"amount"`
}

// FromBill creates a BillResponse.
func FromBill(b *billing.Bill) BillResponse {
	resp := BillResponse{
		ID:             b.ID.String(),
		InvoiceNumber:  b.InvoiceNumber,
		CustomerName:   b.CustomerName,
		CustomerPhone:  b.CustomerPhone,
		DoctorName:     b.DoctorName,
		PaymentMode:    string(b.PaymentMode),
		Status:         string(b.Status),
		TotalAmount:    b.TotalAmount,
		TotalProfit:    b.TotalProfit,
		SellerDLNumber: b.SellerDLNumber,
		CreatedAt:      b.CreatedAt,
	}
	for _, li := range b.Items {
		resp.Items = append(resp.Items, BillItemResponse{
			LineNo:       li.LineNo,
			MedicineID:   li.MedicineID.String(),
			MedicineName: li.MedicineName,
			BatchNumber:  li.BatchNumber,
			ExpiryDate:   types.FormatDate(li.ExpiryDate),
			Quantity:     li.Quantity,
			SellingPrice: li.SellingPrice,
			MRP:          li.MRP,
			Amount:       li.Amount(),
		})
	}
	return resp
}

// ExportQuery selects the shop-local days to export. Both default to today.
type ExportQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// NextNumberResponse previews the next invoice number.
type NextNumberResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
}
