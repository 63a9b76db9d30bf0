package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PayCash       PaymentMethod = "cash"
	PayMonCash    PaymentMethod = "moncash"
	PayNatCash    PaymentMethod = "natcash"
	PayMastercard PaymentMethod = "mastercard"
	PayVisa       PaymentMethod = "visa"
	PayPaypal     PaymentMethod = "paypal"
	PayStripe     PaymentMethod = "stripe"
)

var PaymentMethods = []PaymentMethod{
	PayCash, PayMonCash, PayNatCash, PayMastercard, PayVisa, PayPaypal, PayStripe,
}

// ParsePaymentMethod accepts any casing and surrounding whitespace.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PaymentMethods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// StringList is stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Category      string          `db:"category" json:"category"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"selling_price"`
	Discount      decimal.Decimal `db:"discount" json:"discount"` // percent, 0..100
	Stock         int             `db:"stock" json:"stock"`
	Images        StringList      `db:"images" json:"images"`
	Active        bool            `db:"is_active" json:"is_active"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"

	lowStockBelow = 5
)

// StockStatus buckets a stock level for display and exports.
func StockStatus(stock int) string {
	switch {
	case stock >= lowStockBelow:
		return InStock
	case stock > 0:
		return LowStock
	default:
		return OutOfStock
	}
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SaleItem is a snapshot of the product at sale time.
type SaleItem struct {
	SaleID      string          `db:"sale_id" json:"-"`
	Position    int             `db:"position" json:"position"`
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

type Sale struct {
	ID                 string          `db:"id" json:"id"`
	InvoiceNumber      string          `db:"invoice_number" json:"invoice_number"`
	CustomerName       string          `db:"customer_name" json:"customer_name"`
	CustomerEmail      string          `db:"customer_email" json:"customer_email"`
	CustomerPhone      string          `db:"customer_phone" json:"customer_phone"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentMethod      PaymentMethod   `db:"payment_method" json:"payment_method"`
	SellerID           string          `db:"seller_id" json:"seller_id"`
	Cancelled          bool            `db:"cancelled" json:"cancelled"`
	CancellationReason string          `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Version            int             `db:"version" json:"-"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	Items              []SaleItem      `db:"-" json:"items"`
}

func (s *Sale) Customer() CustomerInfo {
	return CustomerInfo{Name: s.CustomerName, Email: s.CustomerEmail, Phone: s.CustomerPhone}
}

// SaleUpdate is a partial merge; nil fields are left untouched.
// A non-nil Items replaces the whole item list.
type SaleUpdate struct {
	CustomerName  *string        `json:"customer_name"`
	CustomerEmail *string        `json:"customer_email"`
	CustomerPhone *string        `json:"customer_phone"`
	PaymentMethod *PaymentMethod `json:"payment_method"`
	Items         []ItemRequest  `json:"items"`
}

type SaleResult struct {
	Sale             Sale `json:"sale"`
	NotificationSent bool `json:"notification_sent"`
}

type LoginRecord struct {
	ID            string    `db:"id" json:"id"`
	UserID        *string   `db:"user_id" json:"user_id,omitempty"`
	Email         string    `db:"email" json:"email"`
	IP            string    `db:"ip" json:"ip"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	DeviceType    string    `db:"device_type" json:"device_type"`
	Success       bool      `db:"success" json:"success"`
	FailureReason string    `db:"failure_reason" json:"failure_reason,omitempty"`
	Suspicious    bool      `db:"suspicious" json:"suspicious"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
