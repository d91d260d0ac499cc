// Package printer renders bills as printable PDF invoices.
package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"stocky/internal/domain/billing"
	"stocky/internal/domain/shop"
)

const (
	pageWidth = 210.0
	margin    = 12.0
	qrSize    = 28.0
)

// column widths for the item table; they sum to pageWidth - 2*margin.
var columns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Medicine", 62, "L"},
	{"Batch", 26, "L"},
	{"Expiry", 22, "C"},
	{"Qty", 14, "R"},
	{"MRP", 24, "R"},
	{"Amount", 28, "R"},
}

// Invoice renders one bill. The QR code encodes the invoice number so a
// printed copy can be looked up at the counter. loc sets the printed time zone.
func Invoice(b *billing.Bill, p *shop.Profile, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	qrPng, err := qrcode.Encode(b.InvoiceNumber, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode invoice qr: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("invoice_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("invoice_qr", pageWidth-margin-qrSize, margin, qrSize, qrSize, false, imgOptions, 0, "")

	header(pdf, p, tr)

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Invoice: "+b.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+b.CreatedAt.In(loc).Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Customer: "+tr(b.CustomerName), "", 1, "L", false, 0, "")
	if b.CustomerPhone != "" {
		pdf.CellFormat(0, 6, "Phone: "+b.CustomerPhone, "", 1, "L", false, 0, "")
	}
	if b.DoctorName != "" {
		pdf.CellFormat(0, 6, "Prescribed by: "+tr(b.DoctorName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, li := range b.Items {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			tr(li.MedicineName),
			li.BatchNumber,
			li.ExpiryDate.Format("01/2006"),
			fmt.Sprintf("%d", li.Quantity),
			li.MRP.StringFixed(2),
			li.Amount().StringFixed(2),
		}
		for j, c := range columns {
			pdf.CellFormat(c.width, 6, cells[j], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var labelWidth float64
	for _, c := range columns[:len(columns)-1] {
		labelWidth += c.width
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(labelWidth, 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[len(columns)-1].width, 7, b.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s (%s)", b.PaymentMode, b.Status), "", 1, "L", false, 0, "")
	if b.SellerDLNumber != "" {
		pdf.CellFormat(0, 5, "Drug License: "+b.SellerDLNumber, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func header(pdf *gofpdf.Fpdf, p *shop.Profile, tr func(string) string) {
	name := "Stocky Pharmacy"
	if p != nil && p.ShopName != "" {
		name = p.ShopName
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(pageWidth-2*margin-qrSize, 9, tr(name), "", 1, "L", false, 0, "")

	if p == nil {
		return
	}
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{p.Address, cityLine(p), labelled("Phone", p.Phone), labelled("GSTIN", p.GSTIN)} {
		if line != "" {
			pdf.CellFormat(pageWidth-2*margin-qrSize, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
}

func cityLine(p *shop.Profile) string {
	s := p.City
	if p.State != "" {
		if s != "" {
			s += ", "
		}
		s += p.State
	}
	if p.Pincode != "" {
		s += " " + p.Pincode
	}
	return s
}

func labelled(label, v string) string {
	if v == "" {
		return ""
	}
	return label + ": " + v
}
