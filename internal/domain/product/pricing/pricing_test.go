package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestEffective(t *testing.T) {
	now := time.Now()

	t.Run("No sale returns base price", func(t *testing.T) {
		got := Effective(d("199.99"), false, 20, nil, now)
		assert.True(t, got.Equal(d("199.99")))
	})

	t.Run("Active sale applies percentage", func(t *testing.T) {
		got := Effective(d("100"), true, 25, nil, now)
		assert.True(t, got.Equal(d("75")))
	})

	t.Run("Expired sale returns base price", func(t *testing.T) {
		ends := now.Add(-time.Hour)
		got := Effective(d("100"), true, 25, &ends, now)
		assert.True(t, got.Equal(d("100")))
	})

	t.Run("Sale with future end still applies", func(t *testing.T) {
		ends := now.Add(time.Hour)
		got := Effective(d("100"), true, 10, &ends, now)
		assert.True(t, got.Equal(d("90")))
	})

	t.Run("Zero percent sale returns base price", func(t *testing.T) {
		got := Effective(d("100"), true, 0, nil, now)
		assert.True(t, got.Equal(d("100")))
	})

	t.Run("100 percent sale clamps to zero not negative", func(t *testing.T) {
		got := Effective(d("100"), true, 100, nil, now)
		assert.True(t, got.Equal(decimal.Zero))
	})

	t.Run("Over 100 percent clamps to zero", func(t *testing.T) {
		got := Effective(d("100"), true, 150, nil, now)
		assert.True(t, got.Equal(decimal.Zero))
		assert.False(t, got.IsNegative())
	})

	t.Run("Effective price never exceeds base price", func(t *testing.T) {
		for _, pct := range []int{1, 10, 50, 99, 100} {
			got := Effective(d("49.99"), true, pct, nil, now)
			assert.True(t, got.LessThanOrEqual(d("49.99")))
			assert.False(t, got.IsNegative())
		}
	})
}

func TestSubtotal(t *testing.T) {
	t.Run("Sums unit price times quantity", func(t *testing.T) {
		lines := []Line{
			{UnitPrice: d("10.50"), Quantity: 2},
			{UnitPrice: d("3.25"), Quantity: 4},
		}
		assert.True(t, Subtotal(lines).Equal(d("34.00")))
	})

	t.Run("Empty cart is zero", func(t *testing.T) {
		assert.True(t, Subtotal(nil).Equal(decimal.Zero))
	})

	t.Run("No float drift on repeated cents", func(t *testing.T) {
		lines := []Line{{UnitPrice: d("0.10"), Quantity: 3}}
		assert.True(t, Subtotal(lines).Equal(d("0.30")))
	})
}

func TestDiscount(t *testing.T) {
	t.Run("Percentage discount", func(t *testing.T) {
		// SAVE10: 10% off 1000 -> 100
		got := Discount(d("1000"), DiscountPercentage, d("10"))
		assert.True(t, got.Equal(d("100")))
	})

	t.Run("Fixed discount", func(t *testing.T) {
		got := Discount(d("500"), DiscountFixed, d("50"))
		assert.True(t, got.Equal(d("50")))
	})

	t.Run("Fixed discount clamped to subtotal", func(t *testing.T) {
		got := Discount(d("30"), DiscountFixed, d("100"))
		assert.True(t, got.Equal(d("30")))
	})

	t.Run("Discount never exceeds subtotal", func(t *testing.T) {
		got := Discount(d("100"), DiscountPercentage, d("200"))
		assert.True(t, got.LessThanOrEqual(d("100")))
	})

	t.Run("Unknown type yields zero", func(t *testing.T) {
		got := Discount(d("100"), "BOGUS", d("10"))
		assert.True(t, got.Equal(decimal.Zero))
	})
}

func TestTotal(t *testing.T) {
	t.Run("Total equals subtotal minus discount", func(t *testing.T) {
		assert.True(t, Total(d("900"), d("100")).Equal(d("800")))
	})

	t.Run("Total floored at zero", func(t *testing.T) {
		assert.True(t, Total(d("50"), d("80")).Equal(decimal.Zero))
	})
}
