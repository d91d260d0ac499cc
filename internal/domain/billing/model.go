// Package billing creates and reads sales bills.
package billing

import (
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
)

// PaymentMode is how the customer paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentUPI    PaymentMode = "UPI"
	PaymentCard   PaymentMode = "Card"
	PaymentCredit PaymentMode = "Credit"
)

// ParsePaymentMode accepts any casing; empty means Cash.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cash":
		return PaymentCash, nil
	case "upi":
		return PaymentUPI, nil
	case "card":
		return PaymentCard, nil
	case "credit":
		return PaymentCredit, nil
	}
	return "", apperror.NewValidation("unsupported payment mode").
		WithDetail("field", "paymentMode").
		WithDetail("value", s)
}

// Status of a bill. Credit sales stay due until settled outside the system.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusDue       Status = "Due"
)

// Bill is an immutable sale record. Items are loaded separately.
type Bill struct {
	ID             id.ID       `db:"id" json:"id"`
	ShopID         id.ID       `db:"shop_id" json:"shopId"`
	InvoiceNumber  string      `db:"invoice_number" json:"invoiceNumber"`
	CustomerName   string      `db:"customer_name" json:"customerName"`
	CustomerPhone  string      `db:"customer_phone" json:"customerPhone,omitempty"`
	DoctorName     string      `db:"doctor_name" json:"doctorName,omitempty"`
	PaymentMode    PaymentMode `db:"payment_mode" json:"paymentMode"`
	Status         Status      `db:"status" json:"status"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
	TotalProfit    types.Money `db:"total_profit" json:"totalProfit"`
	SellerDLNumber string      `db:"seller_dl_number" json:"sellerDlNumber,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`

	Items []LineItem `db:"-" json:"items,omitempty"`
}

// LineItem snapshots the sold batch so the bill survives later stock edits.
type LineItem struct {
	ID           id.ID       `db:"id" json:"id"`
	BillID       id.ID       `db:"bill_id" json:"billId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	MedicineID   id.ID       `db:"medicine_id" json:"medicineId"`
	MedicineName string      `db:"medicine_name" json:"medicineName"`
	BatchNumber  string      `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate   time.Time   `db:"expiry_date" json:"expiryDate"`
	Quantity     int         `db:"quantity" json:"quantity"`
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`
	MRP          types.Money `db:"mrp" json:"mrp"`
}

// Amount is quantity × selling price.
func (li LineItem) Amount() types.Money {
	return types.LineTotal(li.SellingPrice, li.Quantity)
}

// LineInput is one cart line as submitted at checkout.
type LineInput struct {
	MedicineID   id.ID
	Quantity     int
	SellingPrice types.Money
}

// CreateInput is a checkout request.
type CreateInput struct {
	CustomerName  string
	CustomerPhone string
	DoctorName    string
	PaymentMode   string
	Lines         []LineInput
}

// Validate checks the cart. Phone normalization happens in the service.
func (in *CreateInput) Validate() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.DoctorName = strings.TrimSpace(in.DoctorName)

	if in.CustomerName == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "customerName")
	}
	if len(in.Lines) == 0 {
		return apperror.NewValidation("cart is empty").WithDetail("field", "items")
	}

	seen := make(map[id.ID]bool, len(in.Lines))
	for i, l := range in.Lines {
		if id.IsNil(l.MedicineID) {
			return apperror.NewValidation("medicine is required").WithDetail("line", i+1)
		}
		if seen[l.MedicineID] {
			return apperror.NewValidation("batch is already in the cart").
				WithDetail("line", i+1).
				WithDetail("medicine_id", l.MedicineID.String())
		}
		seen[l.MedicineID] = true
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").WithDetail("line", i+1)
		}
		if l.SellingPrice.IsNegative() {
			return apperror.NewValidation("selling price cannot be negative").WithDetail("line", i+1)
		}
	}
	return nil
}

// Totals sums amount and profit over the lines. purchase maps medicine id
// to its purchase price per unit.
func Totals(items []LineItem, purchase map[id.ID]types.Money) (amount, profit types.Money) {
	amount, profit = types.Zero(), types.Zero()
	for _, li := range items {
		amount = amount.Add(li.Amount())
		margin := li.SellingPrice.Sub(purchase[li.MedicineID])
		profit = profit.Add(types.LineTotal(margin, li.Quantity))
	}
	return amount, profit
}
