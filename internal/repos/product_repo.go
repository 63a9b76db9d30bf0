package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
)

const productCols = `id, name, description, category, purchase_price, selling_price, discount,
	stock, images, is_active, created_by, created_at, updated_at`

// ProductRepo is the product ledger. It is the only writer of products.stock.
type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

// WithTx returns a copy bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

// FindByID returns an active product.
func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ? AND is_active = ?`), id, true)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAny returns the product whether or not it is active.
func (r *ProductRepo) FindAny(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAll lists active products, newest first.
func (r *ProductRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE is_active = ? ORDER BY created_at DESC, name`), true)
	return out, err
}

// ListAll includes inactive products, for administration and exports.
func (r *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+productCols+` FROM products ORDER BY created_at DESC, name`)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO products
		  (id, name, description, category, purchase_price, selling_price, discount, stock, images, is_active, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.Description, p.Category, p.PurchasePrice, p.SellingPrice, p.Discount,
		p.Stock, p.Images, p.Active, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update rewrites descriptive fields and prices. Stock is left alone; it
// only moves through the conditional operations below.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET name = ?, description = ?, category = ?, purchase_price = ?, selling_price = ?,
		    discount = ?, images = ?, updated_at = ?
		WHERE id = ?
	`), p.Name, p.Description, p.Category, p.PurchasePrice, p.SellingPrice, p.Discount, p.Images, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectOne(res)
}

// UpdateStock sets stock to next only if it still equals expected.
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, expected, next int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET stock = ?, updated_at = ?
		WHERE id = ? AND stock = ?
	`), next, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.FindAny(ctx, id); err != nil {
			return err
		}
		return ErrStockConflict
	}
	return nil
}

// DecrementStock atomically subtracts by units if enough stock exists.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, by int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?
	`), by, time.Now().UTC(), id, by)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock returns units to the ledger. Inactive products still
// receive their stock back.
func (r *ProductRepo) IncrementStock(ctx context.Context, id string, by int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?
	`), by, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return expectOne(res)
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	return expectOne(res)
}

func (r *ProductRepo) SoftDelete(ctx context.Context, id string) error {
	return r.SetActive(ctx, id, false)
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

func expectOne(res rowsResult) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
