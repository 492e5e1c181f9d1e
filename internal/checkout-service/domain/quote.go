package domain

import "github.com/shopspring/decimal"

// Quote holds the amounts a checkout will charge.
type Quote struct {
	Subtotal    decimal.Decimal
	Shippable   []CartItem
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// NewQuote prices the cart. The flat fee applies once when at least one item
// ships, whatever the weight or count.
func NewQuote(cart *Cart, flatFee decimal.Decimal) Quote {
	q := Quote{
		Subtotal:    cart.Subtotal(),
		Shippable:   cart.ShippableItems(),
		ShippingFee: decimal.Zero,
	}
	if len(q.Shippable) > 0 {
		q.ShippingFee = flatFee
	}
	q.Total = q.Subtotal.Add(q.ShippingFee)
	return q
}

func (q Quote) RequiresShipping() bool { return len(q.Shippable) > 0 }
