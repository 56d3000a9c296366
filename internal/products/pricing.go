package products

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ClampDiscount bounds a discount percentage to [0,100].
func ClampDiscount(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// DiscountedPrice returns price*(100-pct)/100 rounded half away from zero to cents.
func DiscountedPrice(price decimal.Decimal, pct int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - ClampDiscount(pct)))
	return price.Mul(factor).Div(hundred).Round(2)
}

// LineSubtotal is the discounted unit price times quantity.
func LineSubtotal(price decimal.Decimal, pct, quantity int) decimal.Decimal {
	return DiscountedPrice(price, pct).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
