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
	"salesdesk/internal/invoice"
	applog "salesdesk/internal/log"
	"salesdesk/internal/metrics"
	"salesdesk/internal/notify"
	"salesdesk/internal/pricing"
	"salesdesk/internal/repos"
	"salesdesk/internal/validate"
)

// SaleService turns carts into sales and undoes them. It keeps no state
// between calls; every stock movement happens inside one transaction.
type SaleService struct {
	DB            *sqlx.DB
	Products      *repos.ProductRepo
	Sales         *repos.SaleRepo
	Invoices      invoice.Generator
	Notifier      notify.Notifier
	Metrics       *metrics.Metrics
	MaxAttempts   int
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// txAttempts bounds retries of deadlocked or serialization-failed transactions.
const txAttempts = 3

func NewSaleService(db *sqlx.DB, invoices invoice.Generator, notifier notify.Notifier) *SaleService {
	return &SaleService{
		DB:          db,
		Products:    repos.NewProductRepo(db),
		Sales:       repos.NewSaleRepo(db),
		Invoices:    invoices,
		Notifier:    notifier,
		MaxAttempts: 5,
		Now:         time.Now,
	}
}

func (s *SaleService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *SaleService) maxAttempts() int {
	if s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

// Create validates the cart, reserves stock for every item and stores the
// sale. Either every item is reserved and the sale exists, or nothing changed.
func (s *SaleService) Create(ctx context.Context, caller domain.Caller, customer domain.CustomerInfo, items []domain.ItemRequest, method domain.PaymentMethod) (*domain.SaleResult, error) {
	customer, method, err := validateSale(customer, items, method)
	if err != nil {
		s.failed(err)
		return nil, err
	}

	var sale *domain.Sale
	for attempt := 1; ; attempt++ {
		sale, err = s.createOnce(ctx, caller, customer, items, method)
		if err == nil {
			break
		}
		if !errors.Is(err, repos.ErrDuplicateInvoice) {
			s.failed(err)
			return nil, err
		}
		applog.Security(nil, "sale.invoice.collision", map[string]any{"attempt": attempt})
		if attempt >= s.maxAttempts() {
			err = &domain.ConflictError{Reason: "could not allocate a unique invoice number"}
			s.failed(err)
			return nil, err
		}
	}

	s.Metrics.SaleCreated(string(sale.PaymentMethod))
	applog.Audit(nil, "sale.create", map[string]any{
		"sale_id": sale.ID, "invoice": sale.InvoiceNumber, "seller_id": sale.SellerID,
		"total": sale.TotalAmount.StringFixed(2), "items": len(sale.Items),
	})
	return &domain.SaleResult{Sale: *sale, NotificationSent: s.notify(ctx, notify.SaleCreated, sale)}, nil
}

func (s *SaleService) createOnce(ctx context.Context, caller domain.Caller, customer domain.CustomerInfo, items []domain.ItemRequest, method domain.PaymentMethod) (*domain.Sale, error) {
	now := s.now()
	sale := &domain.Sale{
		ID:            uuid.NewString(),
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		PaymentMethod: method,
		SellerID:      caller.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := repos.WithRetry(ctx, s.DB, txAttempts, func(tx *sqlx.Tx) error {
		lines, total, err := reserve(ctx, s.Products.WithTx(tx), items)
		if err != nil {
			return err
		}
		sale.Items = lines
		sale.TotalAmount = total
		sale.InvoiceNumber = s.Invoices.Next()
		return s.Sales.WithTx(tx).Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// reserve prices and decrements stock item by item, in input order.
func reserve(ctx context.Context, products *repos.ProductRepo, items []domain.ItemRequest) ([]domain.SaleItem, decimal.Decimal, error) {
	lines := make([]domain.SaleItem, 0, len(items))
	subtotals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		p, err := products.FindByID(ctx, it.ProductID)
		if errors.Is(err, repos.ErrNotFound) {
			return nil, decimal.Zero, &domain.NotFoundError{Resource: "product", ID: it.ProductID}
		}
		if err != nil {
			return nil, decimal.Zero, err
		}
		if p.Stock < it.Quantity {
			return nil, decimal.Zero, &domain.InsufficientStockError{
				ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: it.Quantity,
			}
		}

		line := pricing.Price(p.SellingPrice, p.Discount, it.Quantity)

		if err := products.DecrementStock(ctx, p.ID, it.Quantity); err != nil {
			if !errors.Is(err, repos.ErrInsufficientStock) {
				return nil, decimal.Zero, err
			}
			available := p.Stock
			if fresh, ferr := products.FindAny(ctx, p.ID); ferr == nil {
				available = fresh.Stock
			}
			return nil, decimal.Zero, &domain.InsufficientStockError{
				ProductID: p.ID, ProductName: p.Name, Available: available, Requested: it.Quantity,
			}
		}

		lines = append(lines, domain.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		})
		subtotals = append(subtotals, line.Subtotal)
	}
	return lines, pricing.Total(subtotals...), nil
}

// restore gives back the stock held by items. Any failure is a CompensationError.
func restore(ctx context.Context, products *repos.ProductRepo, saleID string, items []domain.SaleItem) error {
	for _, it := range items {
		if err := products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return &domain.CompensationError{SaleID: saleID, ProductID: it.ProductID, Err: err}
		}
	}
	return nil
}

// Update merges customer fields and payment method. New items replace the
// old ones: old stock is restored and the new items reserved at current
// prices, all in one transaction.
func (s *SaleService) Update(ctx context.Context, caller domain.Caller, id string, upd domain.SaleUpdate) (*domain.SaleResult, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "update sale"}
	}
	if err := validateUpdate(&upd); err != nil {
		s.failed(err)
		return nil, err
	}

	var sale *domain.Sale
	err := repos.WithRetry(ctx, s.DB, txAttempts, func(tx *sqlx.Tx) error {
		sales, products := s.Sales.WithTx(tx), s.Products.WithTx(tx)
		var err error
		sale, err = sales.FindByID(ctx, id)
		if errors.Is(err, repos.ErrNotFound) {
			return &domain.NotFoundError{Resource: "sale", ID: id}
		}
		if err != nil {
			return err
		}
		if sale.Cancelled {
			return &domain.ConflictError{Reason: "cancelled sales cannot be updated"}
		}

		if upd.CustomerName != nil {
			sale.CustomerName = *upd.CustomerName
		}
		if upd.CustomerEmail != nil {
			sale.CustomerEmail = *upd.CustomerEmail
		}
		if upd.CustomerPhone != nil {
			sale.CustomerPhone = *upd.CustomerPhone
		}
		if upd.PaymentMethod != nil {
			sale.PaymentMethod = *upd.PaymentMethod
		}
		sale.UpdatedAt = s.now()

		if upd.Items != nil {
			if err := restore(ctx, products, sale.ID, sale.Items); err != nil {
				return err
			}
			lines, total, err := reserve(ctx, products, upd.Items)
			if err != nil {
				return err
			}
			sale.Items = lines
			sale.TotalAmount = total
		}

		if err := sales.Update(ctx, sale); err != nil {
			if errors.Is(err, repos.ErrVersionConflict) {
				return &domain.ConflictError{Reason: "sale was modified concurrently"}
			}
			return err
		}
		if upd.Items != nil {
			return sales.ReplaceItems(ctx, sale.ID, sale.Items)
		}
		return nil
	})
	if err != nil {
		s.failed(err)
		return nil, err
	}

	applog.Audit(nil, "sale.update", map[string]any{"sale_id": sale.ID, "by": caller.ID, "items_changed": upd.Items != nil})
	return &domain.SaleResult{Sale: *sale, NotificationSent: s.notify(ctx, notify.SaleUpdated, sale)}, nil
}

// Cancel marks the sale cancelled and returns its stock. A second cancel
// is a ConflictError and restores nothing.
func (s *SaleService) Cancel(ctx context.Context, caller domain.Caller, id, reason string) (*domain.Sale, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "cancel sale"}
	}
	reason = strings.TrimSpace(reason)

	var sale *domain.Sale
	err := repos.WithRetry(ctx, s.DB, txAttempts, func(tx *sqlx.Tx) error {
		sales, products := s.Sales.WithTx(tx), s.Products.WithTx(tx)
		var err error
		sale, err = sales.FindByID(ctx, id)
		if errors.Is(err, repos.ErrNotFound) {
			return &domain.NotFoundError{Resource: "sale", ID: id}
		}
		if err != nil {
			return err
		}

		now := s.now()
		if err := sales.Cancel(ctx, id, reason, now); err != nil {
			if errors.Is(err, repos.ErrAlreadyCancelled) {
				return &domain.ConflictError{Reason: "sale already cancelled"}
			}
			return err
		}
		if err := restore(ctx, products, sale.ID, sale.Items); err != nil {
			return err
		}
		sale.Cancelled = true
		sale.CancellationReason = reason
		sale.CancelledAt = &now
		sale.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.failed(err)
		return nil, err
	}

	applog.Audit(nil, "sale.cancel", map[string]any{"sale_id": sale.ID, "by": caller.ID, "reason": reason})
	s.notify(ctx, notify.SaleCancelled, sale)
	return sale, nil
}

// Delete removes a sale. Stock is restored unless a cancellation already did.
func (s *SaleService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.IsAdmin() {
		return &domain.ForbiddenError{Action: "delete sale"}
	}
	err := repos.WithRetry(ctx, s.DB, txAttempts, func(tx *sqlx.Tx) error {
		sales, products := s.Sales.WithTx(tx), s.Products.WithTx(tx)
		sale, err := sales.FindByID(ctx, id)
		if errors.Is(err, repos.ErrNotFound) {
			return &domain.NotFoundError{Resource: "sale", ID: id}
		}
		if err != nil {
			return err
		}
		if !sale.Cancelled {
			if err := restore(ctx, products, sale.ID, sale.Items); err != nil {
				return err
			}
		}
		return sales.Delete(ctx, id)
	})
	if err != nil {
		s.failed(err)
		return err
	}
	applog.Audit(nil, "sale.delete", map[string]any{"sale_id": id, "by": caller.ID})
	return nil
}

// Get returns a sale to an admin or to the seller who made it.
func (s *SaleService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.Sale, error) {
	sale, err := s.Sales.FindByID(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, &domain.NotFoundError{Resource: "sale", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && sale.SellerID != caller.ID {
		return nil, &domain.NotFoundError{Resource: "sale", ID: id}
	}
	return sale, nil
}

func (s *SaleService) List(ctx context.Context, caller domain.Caller, page repos.Page) ([]domain.Sale, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "list all sales"}
	}
	return s.Sales.FindAll(ctx, page)
}

func (s *SaleService) ListMine(ctx context.Context, caller domain.Caller, page repos.Page) ([]domain.Sale, error) {
	return s.Sales.FindBySeller(ctx, caller.ID, page)
}

const searchLimit = 50

// Search looks up sales by customer name, invoice number or customer email.
// Sellers only ever see their own sales.
func (s *SaleService) Search(ctx context.Context, caller domain.Caller, field, query string) ([]domain.Sale, error) {
	if _, ok := repos.SearchFields[field]; !ok {
		return nil, &domain.ValidationError{Field: "field", Reason: "must be customer_name, invoice_number or customer_email"}
	}
	q, ok := validate.Query(query)
	if !ok {
		return nil, &domain.ValidationError{Field: "query", Reason: "must be at least 2 characters"}
	}
	sellerID := ""
	if !caller.IsAdmin() {
		sellerID = caller.ID
	}
	return s.Sales.Search(ctx, field, q, sellerID, searchLimit)
}

func (s *SaleService) notify(ctx context.Context, kind string, sale *domain.Sale) bool {
	ok := notify.Dispatch(ctx, s.Notifier, s.NotifyTimeout, notify.Event{
		Type: kind, Key: sale.InvoiceNumber, At: s.now(), Payload: sale,
	})
	s.Metrics.Notified(ok)
	return ok
}

func (s *SaleService) failed(err error) {
	s.Metrics.SaleFailed(ErrorKind(err))
	applog.Security(nil, "sale.fail", map[string]any{"kind": ErrorKind(err), "err": err.Error()})
}

func validateSale(customer domain.CustomerInfo, items []domain.ItemRequest, method domain.PaymentMethod) (domain.CustomerInfo, domain.PaymentMethod, error) {
	m, ok := domain.ParsePaymentMethod(string(method))
	if !ok {
		return customer, method, &domain.ValidationError{Field: "payment_method", Reason: "unsupported payment method"}
	}
	if err := validateItems(items); err != nil {
		return customer, m, err
	}
	name, ok := validate.Name(customer.Name)
	if !ok {
		return customer, m, &domain.ValidationError{Field: "customer_name", Reason: "required"}
	}
	email, ok := validate.OptionalEmail(customer.Email)
	if !ok {
		return customer, m, &domain.ValidationError{Field: "customer_email", Reason: "malformed email"}
	}
	phone, ok := validate.Phone(customer.Phone)
	if !ok {
		return customer, m, &domain.ValidationError{Field: "customer_phone", Reason: "malformed phone"}
	}
	return domain.CustomerInfo{Name: name, Email: email, Phone: phone}, m, nil
}

func validateItems(items []domain.ItemRequest) error {
	if len(items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return &domain.ValidationError{Field: fieldAt("items", i, "product_id"), Reason: "required"}
		}
		if it.Quantity <= 0 {
			return &domain.ValidationError{Field: fieldAt("items", i, "quantity"), Reason: "must be positive"}
		}
	}
	return nil
}

func validateUpdate(upd *domain.SaleUpdate) error {
	if upd.PaymentMethod != nil {
		m, ok := domain.ParsePaymentMethod(string(*upd.PaymentMethod))
		if !ok {
			return &domain.ValidationError{Field: "payment_method", Reason: "unsupported payment method"}
		}
		upd.PaymentMethod = &m
	}
	if upd.CustomerName != nil {
		name, ok := validate.Name(*upd.CustomerName)
		if !ok {
			return &domain.ValidationError{Field: "customer_name", Reason: "required"}
		}
		upd.CustomerName = &name
	}
	if upd.CustomerEmail != nil {
		email, ok := validate.OptionalEmail(*upd.CustomerEmail)
		if !ok {
			return &domain.ValidationError{Field: "customer_email", Reason: "malformed email"}
		}
		upd.CustomerEmail = &email
	}
	if upd.CustomerPhone != nil {
		phone, ok := validate.Phone(*upd.CustomerPhone)
		if !ok {
			return &domain.ValidationError{Field: "customer_phone", Reason: "malformed phone"}
		}
		upd.CustomerPhone = &phone
	}
	if upd.Items != nil {
		return validateItems(upd.Items)
	}
	return nil
}
