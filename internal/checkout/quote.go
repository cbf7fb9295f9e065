package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/domain/cart"
)

const Currency = "USD"

var (
	taxRate               = decimal.RequireFromString("0.08")
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShipping          = decimal.NewFromInt(10)
)

// Totals is the money side of an order header.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Shipping decimal.Decimal `json:"shipping_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Total    decimal.Decimal `json:"total_amount"`
	Currency string          `json:"currency"`
}

// Quote prices a cart: 8% tax rounded to cents, free shipping strictly above
// 100, a flat 10 otherwise, and no discount.
func Quote(state cart.State) Totals {
	subtotal := state.TotalAmount
	tax := subtotal.Mul(taxRate).Round(2)
	shipping := flatShipping
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	discount := decimal.Zero
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
		Currency: Currency,
	}
}
