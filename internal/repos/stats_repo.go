package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"salesdesk/internal/domain"
)

// StatsFilter narrows sales aggregates. Cancelled sales are always excluded.
type StatsFilter struct {
	Since    *time.Time
	SellerID string
}

func (f StatsFilter) where(alias string) (string, []any) {
	w := ` WHERE ` + alias + `cancelled = ?`
	args := []any{false}
	if f.Since != nil {
		w += ` AND ` + alias + `created_at >= ?`
		args = append(args, *f.Since)
	}
	if f.SellerID != "" {
		w += ` AND ` + alias + `seller_id = ?`
		args = append(args, f.SellerID)
	}
	return w, args
}

type SalesSummary struct {
	Count   int             `db:"sales_count" json:"count"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Min     decimal.Decimal `db:"min_amount" json:"min"`
	Max     decimal.Decimal `db:"max_amount" json:"max"`
}

type MethodBreakdown struct {
	Method  string          `db:"payment_method" json:"payment_method"`
	Count   int             `db:"sales_count" json:"count"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

type ProductSales struct {
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Revenue     decimal.Decimal `db:"revenue" json:"revenue"`
}

type SellerCounts struct {
	Total    int `db:"total" json:"total"`
	Active   int `db:"active" json:"active"`
	Inactive int `db:"inactive" json:"inactive"`
}

type SellerPerformance struct {
	SellerID string          `db:"seller_id" json:"seller_id"`
	Name     string          `db:"name" json:"name"`
	Email    string          `db:"email" json:"email"`
	Sales    int             `db:"sales_count" json:"sales"`
	Revenue  decimal.Decimal `db:"revenue" json:"revenue"`
}

type ProductStats struct {
	Total        int             `db:"total" json:"total"`
	InStock      int             `db:"in_stock" json:"in_stock"`
	OutOfStock   int             `db:"out_of_stock" json:"out_of_stock"`
	TotalStock   int             `db:"total_stock" json:"total_stock"`
	AveragePrice decimal.Decimal `db:"average_price" json:"average_price"`
}

type CategoryStat struct {
	Category     string          `db:"category" json:"category"`
	Products     int             `db:"products" json:"products"`
	TotalStock   int             `db:"total_stock" json:"total_stock"`
	AveragePrice decimal.Decimal `db:"average_price" json:"average_price"`
}

type SaleTotal struct {
	CreatedAt time.Time       `db:"created_at"`
	Total     decimal.Decimal `db:"total_amount"`
}

type StatsRepo struct{ db sqlx.ExtContext }

func NewStatsRepo(db sqlx.ExtContext) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) Summary(ctx context.Context, f StatsFilter) (SalesSummary, error) {
	w, args := f.where("")
	var s SalesSummary
	err := sqlx.GetContext(ctx, r.db, &s, r.db.Rebind(`
		SELECT COUNT(*) AS sales_count,
		       COALESCE(SUM(total_amount), 0) AS revenue,
		       COALESCE(MIN(total_amount), 0) AS min_amount,
		       COALESCE(MAX(total_amount), 0) AS max_amount
		FROM sales`+w), args...)
	return s, err
}

func (r *StatsRepo) ByPaymentMethod(ctx context.Context, f StatsFilter) ([]MethodBreakdown, error) {
	w, args := f.where("")
	out := []MethodBreakdown{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT payment_method, COUNT(*) AS sales_count, COALESCE(SUM(total_amount), 0) AS revenue
		FROM sales`+w+`
		GROUP BY payment_method
		ORDER BY sales_count DESC, payment_method`), args...)
	return out, err
}

func (r *StatsRepo) TopProducts(ctx context.Context, f StatsFilter, limit int) ([]ProductSales, error) {
	w, args := f.where("s.")
	args = append(args, clampLimit(limit, 10))
	out := []ProductSales{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT i.product_id, MAX(i.product_name) AS product_name,
		       SUM(i.quantity) AS quantity, COALESCE(SUM(i.subtotal), 0) AS revenue
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id`+w+`
		GROUP BY i.product_id
		ORDER BY quantity DESC, revenue DESC
		LIMIT ?`), args...)
	return out, err
}

func (r *StatsRepo) SellerCounts(ctx context.Context) (SellerCounts, error) {
	var c SellerCounts
	err := sqlx.GetContext(ctx, r.db, &c, r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END), 0) AS active,
		       COALESCE(SUM(CASE WHEN is_active = ? THEN 0 ELSE 1 END), 0) AS inactive
		FROM users WHERE role = ?`), true, true, domain.RoleSeller)
	return c, err
}

func (r *StatsRepo) SellerPerformance(ctx context.Context, since *time.Time) ([]SellerPerformance, error) {
	join := `s.seller_id = u.id AND s.cancelled = ?`
	args := []any{false}
	if since != nil {
		join += ` AND s.created_at >= ?`
		args = append(args, *since)
	}
	args = append(args, domain.RoleSeller)
	out := []SellerPerformance{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT u.id AS seller_id, u.name, u.email,
		       COUNT(s.id) AS sales_count, COALESCE(SUM(s.total_amount), 0) AS revenue
		FROM users u
		LEFT JOIN sales s ON `+join+`
		WHERE u.role = ?
		GROUP BY u.id, u.name, u.email
		ORDER BY revenue DESC, u.name`), args...)
	return out, err
}

func (r *StatsRepo) ProductStats(ctx context.Context) (ProductStats, error) {
	var p ProductStats
	err := sqlx.GetContext(ctx, r.db, &p, r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN stock > 0 THEN 1 ELSE 0 END), 0) AS in_stock,
		       COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock,
		       COALESCE(SUM(stock), 0) AS total_stock,
		       COALESCE(AVG(selling_price), 0) AS average_price
		FROM products WHERE is_active = ?`), true)
	return p, err
}

func (r *StatsRepo) Categories(ctx context.Context) ([]CategoryStat, error) {
	out := []CategoryStat{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT category, COUNT(*) AS products,
		       COALESCE(SUM(stock), 0) AS total_stock,
		       COALESCE(AVG(selling_price), 0) AS average_price
		FROM products WHERE is_active = ?
		GROUP BY category
		ORDER BY products DESC, category`), true)
	return out, err
}

// SaleTotals returns created_at and total of every sale matching f.
func (r *StatsRepo) SaleTotals(ctx context.Context, f StatsFilter) ([]SaleTotal, error) {
	w, args := f.where("")
	out := []SaleTotal{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`SELECT created_at, total_amount FROM sales`+w+` ORDER BY created_at`), args...)
	return out, err
}
