// Package pricing turns catalog prices into sale amounts.
//
// Rounding happens in three steps, each to two decimals half away from zero:
// the discounted unit price, the line subtotal, and the sum of subtotals.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Line struct {
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// UnitPrice applies a percent discount to a selling price.
func UnitPrice(sellingPrice, discount decimal.Decimal) decimal.Decimal {
	return sellingPrice.Mul(hundred.Sub(discount)).Div(hundred).Round(2)
}

func Subtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

func Price(sellingPrice, discount decimal.Decimal, qty int) Line {
	unit := UnitPrice(sellingPrice, discount)
	return Line{UnitPrice: unit, Subtotal: Subtotal(unit, qty)}
}

func Total(subtotals ...decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range subtotals {
		sum = sum.Add(s)
	}
	return sum.Round(2)
}

// ValidDiscount reports whether d is a usable percentage.
func ValidDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}
