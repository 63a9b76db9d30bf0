package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
	applog "salesdesk/internal/log"
	"salesdesk/internal/reports"
	"salesdesk/internal/repos"
)

// Export is a rendered file ready to be served.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfType  = "application/pdf"
)

type ExportService struct {
	Sales    *repos.SaleRepo
	Products *repos.ProductRepo
	Users    *repos.UserRepo
	Shop     reports.Shop
	Now      func() time.Time
}

func NewExportService(db *sqlx.DB) *ExportService {
	return &ExportService{
		Sales:    repos.NewSaleRepo(db),
		Products: repos.NewProductRepo(db),
		Users:    repos.NewUserRepo(db),
		Shop:     reports.DefaultShop,
		Now:      time.Now,
	}
}

func (s *ExportService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ExportService) stamp() string { return s.now().Format("2006-01-02") }

// Excel renders one report kind: sales (for a period), products or sellers.
func (s *ExportService) Excel(ctx context.Context, caller domain.Caller, kind, period string) (*Export, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "export"}
	}
	var (
		body []byte
		name string
		err  error
	)
	switch kind {
	case "sales", "":
		if period == "" {
			period = "month"
		}
		var sales []domain.Sale
		if sales, err = s.salesFor(ctx, period); err != nil {
			return nil, err
		}
		body, err = reports.SalesExcel(sales)
		name = "sales-report-" + period + "-" + s.stamp() + ".xlsx"
	case "products":
		var products []domain.Product
		if products, err = s.Products.ListAll(ctx); err != nil {
			return nil, err
		}
		body, err = reports.ProductsExcel(products)
		name = "products-report-" + s.stamp() + ".xlsx"
	case "sellers":
		var sellers []domain.PublicUser
		if sellers, err = s.sellers(ctx); err != nil {
			return nil, err
		}
		body, err = reports.SellersExcel(sellers)
		name = "sellers-report-" + s.stamp() + ".xlsx"
	default:
		return nil, &domain.ValidationError{Field: "type", Reason: "must be sales, products or sellers"}
	}
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "export.excel", map[string]any{"type": kind, "period": period, "by": caller.ID})
	return &Export{Filename: name, ContentType: xlsxType, Body: body}, nil
}

// FullExcel is one workbook with the sales of period, all products and all sellers.
func (s *ExportService) FullExcel(ctx context.Context, caller domain.Caller, period string) (*Export, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "export"}
	}
	if period == "" {
		period = "month"
	}
	var (
		d   reports.Data
		err error
	)
	if d.Sales, err = s.salesFor(ctx, period); err != nil {
		return nil, err
	}
	if d.Products, err = s.Products.ListAll(ctx); err != nil {
		return nil, err
	}
	if d.Sellers, err = s.sellers(ctx); err != nil {
		return nil, err
	}
	body, err := reports.FullExcel(d)
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "export.excel.full", map[string]any{"period": period, "by": caller.ID})
	return &Export{Filename: "full-report-" + s.stamp() + ".xlsx", ContentType: xlsxType, Body: body}, nil
}

func (s *ExportService) SalesPDF(ctx context.Context, caller domain.Caller, period string) (*Export, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "export"}
	}
	if period == "" {
		period = "month"
	}
	sales, err := s.salesFor(ctx, period)
	if err != nil {
		return nil, err
	}
	body, err := reports.SalesReportPDF(s.Shop, period, sales, s.now())
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "export.pdf", map[string]any{"period": period, "by": caller.ID})
	return &Export{Filename: "sales-report-" + period + "-" + s.stamp() + ".pdf", ContentType: pdfType, Body: body}, nil
}

// Invoice renders a sale the caller is already allowed to see.
func (s *ExportService) Invoice(ctx context.Context, sale *domain.Sale) (*Export, error) {
	seller := sale.SellerID
	if u, err := s.Users.ByID(ctx, sale.SellerID); err == nil {
		seller = u.Name
	}
	body, err := reports.InvoicePDF(s.Shop, sale, seller)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: "invoice-" + sale.InvoiceNumber + ".pdf", ContentType: pdfType, Body: body}, nil
}

func (s *ExportService) salesFor(ctx context.Context, period string) ([]domain.Sale, error) {
	since, err := PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	var from time.Time
	if since != nil {
		from = *since
	}
	return s.Sales.Since(ctx, from, "")
}

func (s *ExportService) sellers(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.Users.ByRole(ctx, domain.RoleSeller)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}
