package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
)

const saleCols = `id, invoice_number, customer_name, customer_email, customer_phone, total_amount,
	payment_method, seller_id, cancelled, cancellation_reason, cancelled_at, version, created_at, updated_at`

// Page is a limit/offset window. Zero values mean "first page of 50".
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SearchFields maps the public search field names to columns.
var SearchFields = map[string]string{
	"customer_name":  "customer_name",
	"invoice_number": "invoice_number",
	"customer_email": "customer_email",
}

type SaleRepo struct{ db sqlx.ExtContext }

func NewSaleRepo(db sqlx.ExtContext) *SaleRepo { return &SaleRepo{db: db} }

func (r *SaleRepo) WithTx(tx *sqlx.Tx) *SaleRepo { return &SaleRepo{db: tx} }

// Create inserts the sale header and its items. A taken invoice number
// yields ErrDuplicateInvoice.
func (r *SaleRepo) Create(ctx context.Context, s *domain.Sale) error {
	if s.Version == 0 {
		s.Version = 1
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO sales
		  (id, invoice_number, customer_name, customer_email, customer_phone, total_amount,
		   payment_method, seller_id, cancelled, cancellation_reason, cancelled_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), s.ID, s.InvoiceNumber, s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.TotalAmount,
		string(s.PaymentMethod), s.SellerID, s.Cancelled, s.CancellationReason, nullTime(s.CancelledAt), s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUnique(err) {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

func (r *SaleRepo) insertItems(ctx context.Context, saleID string, items []domain.SaleItem) error {
	q := r.db.Rebind(`
		INSERT INTO sale_items (sale_id, position, product_id, product_name, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i := range items {
		it := &items[i]
		it.SaleID = saleID
		it.Position = i + 1
		if _, err := r.db.ExecContext(ctx, q, saleID, it.Position, it.ProductID, it.ProductName,
			it.Quantity, it.UnitPrice, it.Subtotal); err != nil {
			return fmt.Errorf("insert sale item %d: %w", it.Position, err)
		}
	}
	return nil
}

// ReplaceItems swaps the stored item snapshot for a new one.
func (r *SaleRepo) ReplaceItems(ctx context.Context, saleID string, items []domain.SaleItem) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sale_items WHERE sale_id = ?`), saleID); err != nil {
		return fmt.Errorf("clear sale items: %w", err)
	}
	return r.insertItems(ctx, saleID, items)
}

func (r *SaleRepo) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *SaleRepo) FindByInvoice(ctx context.Context, invoice string) (*domain.Sale, error) {
	return r.findOne(ctx, `invoice_number = ?`, invoice)
}

func (r *SaleRepo) findOne(ctx context.Context, where string, arg any) (*domain.Sale, error) {
	var s domain.Sale
	if err := sqlx.GetContext(ctx, r.db, &s, r.db.Rebind(`SELECT `+saleCols+` FROM sales WHERE `+where), arg); err != nil {
		return nil, notFound(err)
	}
	items, err := r.Items(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

func (r *SaleRepo) Items(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	items := []domain.SaleItem{}
	err := sqlx.SelectContext(ctx, r.db, &items, r.db.Rebind(`
		SELECT sale_id, position, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = ? ORDER BY position
	`), saleID)
	return items, err
}

// FindAll lists every sale, newest first.
func (r *SaleRepo) FindAll(ctx context.Context, page Page) ([]domain.Sale, error) {
	page = page.normalize()
	return r.list(ctx, `SELECT `+saleCols+` FROM sales ORDER BY created_at DESC LIMIT ? OFFSET ?`, page.Limit, page.Offset)
}

func (r *SaleRepo) FindBySeller(ctx context.Context, sellerID string, page Page) ([]domain.Sale, error) {
	page = page.normalize()
	return r.list(ctx, `SELECT `+saleCols+` FROM sales WHERE seller_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		sellerID, page.Limit, page.Offset)
}

// Since lists sales created at or after t, optionally for one seller.
func (r *SaleRepo) Since(ctx context.Context, t time.Time, sellerID string) ([]domain.Sale, error) {
	q := `SELECT ` + saleCols + ` FROM sales WHERE created_at >= ?`
	args := []any{t}
	if sellerID != "" {
		q += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	return r.list(ctx, q+` ORDER BY created_at DESC`, args...)
}

func (r *SaleRepo) Count(ctx context.Context, sellerID string) (int, error) {
	var n int
	q, args := `SELECT COUNT(*) FROM sales`, []any{}
	if sellerID != "" {
		q += ` WHERE seller_id = ?`
		args = append(args, sellerID)
	}
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(q), args...)
	return n, err
}

// Search matches a case-insensitive substring on one whitelisted field.
func (r *SaleRepo) Search(ctx context.Context, field, query, sellerID string, limit int) ([]domain.Sale, error) {
	col, ok := SearchFields[field]
	if !ok {
		return nil, fmt.Errorf("search: unknown field %q", field)
	}
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + saleCols + ` FROM sales WHERE LOWER(` + col + `) LIKE ?`
	args := []any{"%" + strings.ToLower(query) + "%"}
	if sellerID != "" {
		q += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, q, args...)
}

func (r *SaleRepo) list(ctx context.Context, q string, args ...any) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	if err := sqlx.SelectContext(ctx, r.db, &sales, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *SaleRepo) attachItems(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	byID := make(map[string]*domain.Sale, len(sales))
	for i := range sales {
		ids[i] = sales[i].ID
		sales[i].Items = []domain.SaleItem{}
		byID[sales[i].ID] = &sales[i]
	}
	query, args, err := sqlx.In(`
		SELECT sale_id, position, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id IN (?) ORDER BY sale_id, position
	`, ids)
	if err != nil {
		return err
	}
	var items []domain.SaleItem
	if err := sqlx.SelectContext(ctx, r.db, &items, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, it := range items {
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return nil
}

// Update writes header fields if the row is still at s.Version and not
// cancelled. On success s.Version is bumped.
func (r *SaleRepo) Update(ctx context.Context, s *domain.Sale) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE sales
		SET customer_name = ?, customer_email = ?, customer_phone = ?, total_amount = ?,
		    payment_method = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND cancelled = ?
	`), s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.TotalAmount, string(s.PaymentMethod), s.UpdatedAt,
		s.ID, s.Version, false)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}

// Cancel flips the cancelled flag exactly once.
func (r *SaleRepo) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE sales
		SET cancelled = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND cancelled = ?
	`), true, reason, at, at, id, false)
	if err != nil {
		return fmt.Errorf("cancel sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := sqlx.GetContext(ctx, r.db, &exists, r.db.Rebind(`SELECT COUNT(*) FROM sales WHERE id = ?`), id); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// Delete removes the sale and its items. Stock is the caller's concern.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sale_items WHERE sale_id = ?`), id); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sales WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return expectOne(res)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
