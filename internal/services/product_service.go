package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"salesdesk/internal/domain"
	applog "salesdesk/internal/log"
	"salesdesk/internal/pricing"
	"salesdesk/internal/repos"
	"salesdesk/internal/validate"
)

type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Discount      decimal.Decimal `json:"discount"`
	Stock         int             `json:"stock"`
	Images        []string        `json:"images"`
}

type ProductService struct {
	Products *repos.ProductRepo
	Now      func() time.Time
}

func NewProductService(db *sqlx.DB) *ProductService {
	return &ProductService{Products: repos.NewProductRepo(db), Now: time.Now}
}

func (s *ProductService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ProductService) Create(ctx context.Context, caller domain.Caller, in ProductInput) (*domain.Product, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "create product"}
	}
	if err := checkProduct(&in); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	now := s.now()
	p := &domain.Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		Discount:      in.Discount,
		Stock:         in.Stock,
		Images:        domain.StringList(in.Images),
		Active:        true,
		CreatedBy:     caller.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	applog.Audit(nil, "product.create", map[string]any{"product_id": p.ID, "stock": p.Stock, "by": caller.ID})
	return p, nil
}

// Update changes descriptive fields and prices. Stock goes through SetStock.
func (s *ProductService) Update(ctx context.Context, caller domain.Caller, id string, in ProductInput) (*domain.Product, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "update product"}
	}
	if err := checkProduct(&in); err != nil {
		return nil, err
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.PurchasePrice = in.PurchasePrice
	p.SellingPrice = in.SellingPrice
	p.Discount = in.Discount
	if in.Images != nil {
		p.Images = domain.StringList(in.Images)
	}
	p.UpdatedAt = s.now()
	if err := s.Products.Update(ctx, p); err != nil {
		return nil, err
	}
	applog.Audit(nil, "product.update", map[string]any{"product_id": p.ID, "by": caller.ID})
	return p, nil
}

// SetStock overwrites the stock level. When expected is given the write
// only happens if the stock still has that value.
func (s *ProductService) SetStock(ctx context.Context, caller domain.Caller, id string, stock int, expected *int) (*domain.Product, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "set stock"}
	}
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	from := p.Stock
	if expected != nil {
		from = *expected
	}
	if err := s.Products.UpdateStock(ctx, id, from, stock); err != nil {
		if errors.Is(err, repos.ErrStockConflict) {
			return nil, &domain.ConflictError{Reason: "stock changed since it was read"}
		}
		if errors.Is(err, repos.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	applog.Audit(nil, "product.stock", map[string]any{"product_id": id, "from": from, "to": stock, "by": caller.ID})
	p.Stock = stock
	return p, nil
}

func (s *ProductService) SetActive(ctx context.Context, caller domain.Caller, id string, active bool) (*domain.Product, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "change product status"}
	}
	if err := s.Products.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	applog.Audit(nil, "product.status", map[string]any{"product_id": id, "active": active, "by": caller.ID})
	return s.find(ctx, id)
}

// Delete is a soft delete; sold items keep pointing at the row.
func (s *ProductService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.IsAdmin() {
		return &domain.ForbiddenError{Action: "delete product"}
	}
	if err := s.Products.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return &domain.NotFoundError{Resource: "product", ID: id}
		}
		return err
	}
	applog.Audit(nil, "product.delete", map[string]any{"product_id": id, "by": caller.ID})
	return nil
}

// Get returns active products to everyone and inactive ones to admins.
func (s *ProductService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active && !caller.IsAdmin() {
		return nil, &domain.NotFoundError{Resource: "product", ID: id}
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, caller domain.Caller) ([]domain.Product, error) {
	if caller.IsAdmin() {
		return s.Products.ListAll(ctx)
	}
	return s.Products.FindAll(ctx)
}

func (s *ProductService) find(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Products.FindAny(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, &domain.NotFoundError{Resource: "product", ID: id}
	}
	return p, err
}

func checkProduct(in *ProductInput) error {
	name, ok := validate.Name(in.Name)
	if !ok {
		return &domain.ValidationError{Field: "name", Reason: "required"}
	}
	in.Name = name
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return &domain.ValidationError{Field: "category", Reason: "required"}
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.PurchasePrice.IsNegative() {
		return &domain.ValidationError{Field: "purchase_price", Reason: "must not be negative"}
	}
	if in.SellingPrice.IsNegative() {
		return &domain.ValidationError{Field: "selling_price", Reason: "must not be negative"}
	}
	if !pricing.ValidDiscount(in.Discount) {
		return &domain.ValidationError{Field: "discount", Reason: "must be between 0 and 100"}
	}
	return nil
}
