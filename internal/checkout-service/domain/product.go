package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	KindPlain              ProductKind = "PLAIN"
	KindExpirable          ProductKind = "EXPIRABLE"
	KindShippable          ProductKind = "SHIPPABLE"
	KindShippableExpirable ProductKind = "SHIPPABLE_EXPIRABLE"
)

type expiry struct {
	expired bool
}

type shipping struct {
	weightGrams decimal.Decimal
}

// Product is a sellable item. Expiry and shipping are optional capabilities:
// a product without them never expires and never ships.
//
// Products are shared by pointer between the catalog and every CartItem that
// references them, so stock changes are seen by all of them.
type Product struct {
	name     string
	price    decimal.Decimal
	quantity int

	expiry   *expiry
	shipping *shipping
}

type ProductOption func(*Product)

// WithExpiry makes the product perishable with the given expired flag.
func WithExpiry(expired bool) ProductOption {
	return func(p *Product) {
		p.expiry = &expiry{expired: expired}
	}
}

// WithShipping makes the product require physical shipping.
func WithShipping(weightGrams decimal.Decimal) ProductOption {
	return func(p *Product) {
		p.shipping = &shipping{weightGrams: weightGrams}
	}
}

func NewProduct(name string, price decimal.Decimal, quantity int, opts ...ProductOption) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidProduct
	}
	if price.IsNegative() || quantity < 0 {
		return nil, ErrInvalidProduct
	}

	p := &Product{
		name:     name,
		price:    price,
		quantity: quantity,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.shipping != nil && p.shipping.weightGrams.IsNegative() {
		return nil, ErrInvalidProduct
	}
	return p, nil
}

func (p *Product) Name() string { return p.name }
func (p *Product) Price() decimal.Decimal { return p.price }
func (p *Product) Quantity() int { return p.quantity }

func (p *Product) Kind() ProductKind {
	switch {
	case p.expiry != nil && p.shipping != nil:
		return KindShippableExpirable
	case p.shipping != nil:
		return KindShippable
	case p.expiry != nil:
		return KindExpirable
	default:
		return KindPlain
	}
}

func (p *Product) Expirable() bool { return p.expiry != nil }

func (p *Product) IsExpired() bool {
	return p.expiry != nil && p.expiry.expired
}

func (p *Product) RequiresShipping() bool { return p.shipping != nil }

// Weight returns the unit weight in grams, zero for products that do not ship.
func (p *Product) Weight() decimal.Decimal {
	if p.shipping == nil {
		return decimal.Zero
	}
	return p.shipping.weightGrams
}

// ReduceQuantity takes amount units out of stock. It refuses to overdraw.
func (p *Product) ReduceQuantity(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > p.quantity {
		return &OutOfStockError{Product: p.name, Requested: amount, Available: p.quantity}
	}
	p.quantity -= amount
	return nil
}

func (p *Product) Restock(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	p.quantity += amount
	return nil
}

// Expire marks a perishable product as expired.
func (p *Product) Expire() error {
	if p.expiry == nil {
		return ErrNotExpirable
	}
	p.expiry.expired = true
	return nil
}
