package invoice

import (
	"fmt"
	"io"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// 注文1件をA4の請求書PDFにする
type PDFRenderer struct {
	ShopName string
}

var _ usecase.InvoiceRenderer = PDFRenderer{}

func NewPDFRenderer(shopName string) PDFRenderer {
	if shopName == "" {
		shopName = "Storefront"
	}
	return PDFRenderer{ShopName: shopName}
}

func (r PDFRenderer) Render(w io.Writer, o usecase.OrderOutput) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.OrderNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.ShopName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Invoice "+o.OrderNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+o.CreatedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s / %s", o.Status, o.PaidStatus), "", 1, "L", false, 0, "")
	if o.PaymentMethod != "" {
		pdf.CellFormat(0, 6, "Payment: "+o.PaymentMethod, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	addressBlock(pdf, "Ship to", o.ShippingAddress)
	addressBlock(pdf, "Bill to", o.BillingAddress)

	// 明細
	widths := []float64{90, 30, 20, 40}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Item", "Unit price", "Qty", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		pdf.CellFormat(widths[0], 7, clip(it.Name, 50), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, money(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(it.TotalPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	rows := []struct {
		label string
		v     decimal.Decimal
		sign  string
	}{
		{"Subtotal", o.OrderAmount, ""},
		{"Shipping", o.ShippingCharge, ""},
		{"VAT", o.VatAmount, ""},
		{"Tax", o.TaxAmount, ""},
		{"Coupon", o.CouponDiscount, "-"},
		{"Discount", o.Discount, "-"},
	}
	for _, row := range rows {
		if row.v.IsZero() && row.label != "Subtotal" && row.label != "Shipping" {
			continue
		}
		totalLine(pdf, row.label, row.sign+money(row.v), false)
	}
	totalLine(pdf, "Grand total", money(o.GrandTotal), true)
	totalLine(pdf, "Paid", money(o.PaidAmount), false)
	totalLine(pdf, "Due", money(o.DueAmount), true)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	return pdf.Output(w)
}

func addressBlock(pdf *gofpdf.Fpdf, title string, a *model.OrderAddress) {
	if a == nil {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	lines := []string{a.FullName, a.Address, joinNonEmpty(", ", a.City, a.State, a.PostalCode), a.Country, a.Phone, a.Email}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		pdf.CellFormat(0, 5, l, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func totalLine(pdf *gofpdf.Fpdf, label string, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	pdf.CellFormat(140, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, value, "", 1, "R", false, 0, "")
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
