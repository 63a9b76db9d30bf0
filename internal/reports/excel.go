// Package reports renders sales, products and sellers as xlsx workbooks
// and PDF documents.
package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"salesdesk/internal/domain"
)

const (
	SheetSales    = "Sales"
	SheetProducts = "Products"
	SheetSellers  = "Sellers"

	dateLayout = "2006-01-02 15:04"
)

// Data is everything a full workbook needs.
type Data struct {
	Sales    []domain.Sale
	Products []domain.Product
	Sellers  []domain.PublicUser
}

func SalesExcel(sales []domain.Sale) ([]byte, error) {
	return build(func(f *excelize.File) error { return salesSheet(f, sales) })
}

func ProductsExcel(products []domain.Product) ([]byte, error) {
	return build(func(f *excelize.File) error { return productsSheet(f, products) })
}

func SellersExcel(sellers []domain.PublicUser) ([]byte, error) {
	return build(func(f *excelize.File) error { return sellersSheet(f, sellers) })
}

// FullExcel puts all three sheets into one workbook.
func FullExcel(d Data) ([]byte, error) {
	return build(func(f *excelize.File) error {
		if err := salesSheet(f, d.Sales); err != nil {
			return err
		}
		if err := productsSheet(f, d.Products); err != nil {
			return err
		}
		return sellersSheet(f, d.Sellers)
	})
}

func build(fill func(f *excelize.File) error) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := fill(f); err != nil {
		return nil, err
	}
	// the default sheet is only a placeholder
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func salesSheet(f *excelize.File, sales []domain.Sale) error {
	rows := make([][]any, 0, len(sales)+1)
	total := 0.0
	for _, s := range sales {
		amount := s.TotalAmount.InexactFloat64()
		status := "completed"
		if s.Cancelled {
			status = "cancelled"
		} else {
			total += amount
		}
		rows = append(rows, []any{
			s.InvoiceNumber, s.CreatedAt.UTC().Format(dateLayout), s.CustomerName, s.CustomerEmail,
			string(s.PaymentMethod), len(s.Items), amount, status,
		})
	}
	rows = append(rows, []any{"TOTAL", "", "", "", "", "", total, ""})
	return sheet(f, SheetSales,
		[]any{"Invoice", "Date", "Customer", "Email", "Payment", "Items", "Total", "Status"}, rows)
}

func productsSheet(f *excelize.File, products []domain.Product) error {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{
			p.Name, p.Category, p.PurchasePrice.InexactFloat64(), p.SellingPrice.InexactFloat64(),
			p.Discount.InexactFloat64(), p.Stock, domain.StockStatus(p.Stock), p.Active,
		})
	}
	return sheet(f, SheetProducts,
		[]any{"Name", "Category", "Purchase price", "Selling price", "Discount %", "Stock", "Status", "Active"}, rows)
}

func sellersSheet(f *excelize.File, sellers []domain.PublicUser) error {
	rows := make([][]any, 0, len(sellers))
	for _, s := range sellers {
		rows = append(rows, []any{s.Name, s.Email, s.Phone, s.NIF, s.Active, s.CreatedAt.UTC().Format(dateLayout)})
	}
	return sheet(f, SheetSellers, []any{"Name", "Email", "Phone", "NIF", "Active", "Created"}, rows)
}

func sheet(f *excelize.File, name string, header []any, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", last, 18)
}
