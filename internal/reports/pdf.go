package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"salesdesk/internal/domain"
)

// Shop is the letterhead printed on documents.
type Shop struct {
	Name    string
	Tagline string
}

var DefaultShop = Shop{Name: "SALESDESK", Tagline: "Point of sale"}

func newDoc(title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(127, 140, 141)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pdf, tr
}

func header(pdf *fpdf.Fpdf, tr func(string) string, shop Shop, title string) {
	w, _ := pdf.GetPageSize()
	pdf.SetFillColor(44, 62, 80)
	pdf.Rect(0, 0, w, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(15, 9)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(110, 9, tr(shop.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, tr(title), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(shop.Tagline), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(40)
}

func tableHeader(pdf *fpdf.Fpdf, widths []float64, cols []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(52, 152, 219)
	pdf.SetTextColor(255, 255, 255)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// InvoicePDF renders one sale as an invoice. Cancelled sales get a
// visible stamp.
func InvoicePDF(shop Shop, sale *domain.Sale, sellerName string) ([]byte, error) {
	pdf, tr := newDoc("Invoice " + sale.InvoiceNumber)
	pdf.AddPage()
	header(pdf, tr, shop, "INVOICE")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(95, 6, "Billed to", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Invoice", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	left := []string{sale.CustomerName, sale.CustomerEmail, sale.CustomerPhone}
	right := []string{
		"No. " + sale.InvoiceNumber,
		"Date " + sale.CreatedAt.UTC().Format("02/01/2006 15:04"),
		"Seller " + sellerName,
	}
	for i := range left {
		pdf.CellFormat(95, 5, tr(left[i]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(right[i]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{10, 85, 20, 32, 33}
	tableHeader(pdf, widths, []string{"#", "Product", "Qty", "Unit price", "Subtotal"})
	for _, it := range sale.Items {
		pdf.CellFormat(widths[0], 6, fmt.Sprint(it.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(it.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprint(it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, money(it.Subtotal), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, "TOTAL", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, money(sale.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Payment method: "+string(sale.PaymentMethod), "", 1, "L", false, 0, "")

	if sale.Cancelled {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 28)
		pdf.SetTextColor(231, 76, 60)
		pdf.CellFormat(0, 14, "CANCELLED", "", 1, "C", false, 0, "")
		if sale.CancellationReason != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, 6, tr(sale.CancellationReason), "", 1, "C", false, 0, "")
		}
	}
	return output(pdf)
}

// SalesReportPDF renders a period summary followed by one row per sale.
func SalesReportPDF(shop Shop, period string, sales []domain.Sale, generated time.Time) ([]byte, error) {
	pdf, tr := newDoc("Sales report " + period)
	pdf.AddPage()
	header(pdf, tr, shop, "SALES REPORT")

	count, cancelled := 0, 0
	revenue := decimal.Zero
	for _, s := range sales {
		if s.Cancelled {
			cancelled++
			continue
		}
		count++
		revenue = revenue.Add(s.TotalAmount)
	}
	avg := decimal.Zero
	if count > 0 {
		avg = revenue.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Period: " + period,
		"Generated: " + generated.UTC().Format("02/01/2006 15:04") + " UTC",
		fmt.Sprintf("Sales: %d (cancelled: %d)", count, cancelled),
		"Revenue: " + money(revenue),
		"Average sale: " + money(avg),
	} {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{50, 30, 50, 25, 25}
	tableHeader(pdf, widths, []string{"Invoice", "Date", "Customer", "Payment", "Total"})
	for _, s := range sales {
		if s.Cancelled {
			pdf.SetTextColor(231, 76, 60)
		}
		pdf.CellFormat(widths[0], 6, s.InvoiceNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, s.CreatedAt.UTC().Format("02/01/2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(s.CustomerName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, string(s.PaymentMethod), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, money(s.TotalAmount), "1", 1, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	return output(pdf)
}
