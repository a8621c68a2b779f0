package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// 优惠类型
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

var hundred = decimal.NewFromInt(100)

// Line 一条计价行：单价 × 数量
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// SaleActive 判断促销当前是否生效
func SaleActive(onSale bool, salePercent int, saleEndsAt *time.Time, now time.Time) bool {
	if !onSale || salePercent <= 0 {
		return false
	}
	if saleEndsAt != nil && now.After(*saleEndsAt) {
		return false
	}
	return true
}

// Effective 计算商品当前有效单价
// 促销生效时按百分比打折，结果钳制在 [0, 原价]
func Effective(price decimal.Decimal, onSale bool, salePercent int, saleEndsAt *time.Time, now time.Time) decimal.Decimal {
	if !SaleActive(onSale, salePercent, saleEndsAt, now) {
		return price
	}

	pct := decimal.NewFromInt(int64(salePercent))
	if pct.GreaterThan(hundred) {
		pct = hundred
	}

	effective := price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
	if effective.IsNegative() {
		return decimal.Zero
	}
	if effective.GreaterThan(price) {
		return price
	}
	return effective
}

// Subtotal 计算小计：Σ(单价 × 数量)
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Discount 计算优惠金额，钳制在 [0, 小计]，优惠永远不会把总价打成负数
func Discount(subtotal decimal.Decimal, discountType string, value decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch discountType {
	case DiscountPercentage:
		d = subtotal.Mul(value).Div(hundred).Round(2)
	case DiscountFixed:
		d = value
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// Total 应付金额 = 小计 - 优惠，下限为 0
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
