package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesdesk/internal/domain"
)

func sampleSales() []domain.Sale {
	at := time.Date(2026, 4, 2, 10, 15, 0, 0, time.UTC)
	return []domain.Sale{
		{
			InvoiceNumber: "JHY-1", CustomerName: "Loïse Étienne", PaymentMethod: domain.PayCash,
			TotalAmount: decimal.RequireFromString("270"), CreatedAt: at,
			Items: []domain.SaleItem{{Position: 1, ProductName: "Blender", Quantity: 3,
				UnitPrice: decimal.RequireFromString("90"), Subtotal: decimal.RequireFromString("270")}},
		},
		{
			InvoiceNumber: "JHY-2", CustomerName: "Paul", PaymentMethod: domain.PayVisa,
			TotalAmount: decimal.RequireFromString("15.5"), CreatedAt: at, Cancelled: true,
		},
	}
}

func TestSalesExcel(t *testing.T) {
	b, err := SalesExcel(sampleSales())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSales}, f.GetSheetList())
	rows, err := f.GetRows(SheetSales)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, "JHY-1", rows[1][0])
	assert.Equal(t, "cancelled", rows[2][7])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "270", rows[3][6], "cancelled sales are left out of the total")
}

func TestFullExcelHasAllSheets(t *testing.T) {
	b, err := FullExcel(Data{
		Sales:    sampleSales(),
		Products: []domain.Product{{Name: "Blender", Category: "kitchen", Stock: 2}},
		Sellers:  []domain.PublicUser{{Name: "Jean", Email: "jean@shop.ht", Active: true}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSales, SheetProducts, SheetSellers}, f.GetSheetList())

	status, err := f.GetCellValue(SheetProducts, "G2")
	require.NoError(t, err)
	assert.Equal(t, domain.LowStock, status)
}

func TestInvoicePDF(t *testing.T) {
	sales := sampleSales()
	b, err := InvoicePDF(DefaultShop, &sales[0], "Jean")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))

	b, err = InvoicePDF(DefaultShop, &sales[1], "Jean")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestSalesReportPDF(t *testing.T) {
	b, err := SalesReportPDF(DefaultShop, "month", sampleSales(), time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
	assert.Greater(t, len(b), 500)
}
