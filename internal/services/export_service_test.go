package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesdesk/internal/domain"
	"salesdesk/internal/services"
)

func TestExports(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	p := seedProduct(t, f.db, "Blender", "100.00", "10", 10)
	res, err := f.svc.Create(ctx, f.seller, customer, []domain.ItemRequest{{ProductID: p.ID, Quantity: 1}}, domain.PayCash)
	require.NoError(t, err)

	exp := services.NewExportService(f.db)

	x, err := exp.Excel(ctx, f.admin, "sales", "all")
	require.NoError(t, err)
	assert.Contains(t, x.Filename, "sales-report-all-")
	wb, err := excelize.OpenReader(bytes.NewReader(x.Body))
	require.NoError(t, err)
	rows, err := wb.GetRows("Sales")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	_ = wb.Close()

	full, err := exp.FullExcel(ctx, f.admin, "")
	require.NoError(t, err)
	wb, err = excelize.OpenReader(bytes.NewReader(full.Body))
	require.NoError(t, err)
	assert.Len(t, wb.GetSheetList(), 3)
	_ = wb.Close()

	pdf, err := exp.SalesPDF(ctx, f.admin, "week")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	inv, err := exp.Invoice(ctx, &res.Sale)
	require.NoError(t, err)
	assert.Equal(t, "invoice-"+res.Sale.InvoiceNumber+".pdf", inv.Filename)

	_, err = exp.Excel(ctx, f.admin, "orders", "")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = exp.Excel(ctx, f.seller, "products", "")
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)
}
