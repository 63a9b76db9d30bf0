package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPriceTenPercentOff(t *testing.T) {
	line := Price(d("100"), d("10"), 3)
	assert.True(t, line.UnitPrice.Equal(d("90.00")), "unit=%s", line.UnitPrice)
	assert.True(t, line.Subtotal.Equal(d("270.00")), "subtotal=%s", line.Subtotal)
}

func TestUnitPriceRoundsBeforeMultiplying(t *testing.T) {
	// 19.99 * 0.85 = 16.9915 -> 16.99
	unit := UnitPrice(d("19.99"), d("15"))
	assert.Equal(t, "16.99", unit.StringFixed(2))
	assert.Equal(t, "50.97", Subtotal(unit, 3).StringFixed(2))

	// 0.125 rounds half away from zero
	assert.Equal(t, "0.13", UnitPrice(d("0.25"), d("50")).StringFixed(2))

	// 33.335 * 1 -> 33.34 at the unit step, so 3 units is 100.02 not 100.01
	unit = UnitPrice(d("66.67"), d("50"))
	assert.Equal(t, "33.34", unit.StringFixed(2))
	assert.Equal(t, "100.02", Subtotal(unit, 3).StringFixed(2))
}

func TestTotalMatchesFormula(t *testing.T) {
	cases := []struct {
		price, discount string
		qty             int
	}{
		{"100", "10", 3},
		{"19.99", "15", 2},
		{"7.49", "0", 11},
		{"1234.56", "33.3", 1},
		{"0.99", "100", 4},
	}
	var subtotals []decimal.Decimal
	want := decimal.Zero
	for _, c := range cases {
		line := Price(d(c.price), d(c.discount), c.qty)
		subtotals = append(subtotals, line.Subtotal)

		unit := d(c.price).Mul(decimal.NewFromInt(1).Sub(d(c.discount).Div(decimal.NewFromInt(100)))).Round(2)
		want = want.Add(unit.Mul(decimal.NewFromInt(int64(c.qty))).Round(2))
	}
	assert.True(t, Total(subtotals...).Equal(want.Round(2)))
}

func TestTotalEmpty(t *testing.T) {
	assert.True(t, Total().IsZero())
}

func TestValidDiscount(t *testing.T) {
	assert.True(t, ValidDiscount(d("0")))
	assert.True(t, ValidDiscount(d("100")))
	assert.False(t, ValidDiscount(d("-1")))
	assert.False(t, ValidDiscount(d("100.01")))
}
