package domain

import "github.com/shopspring/decimal"

// CartItem pairs a shared product with the quantity requested when it was
// added. Every derived value reads the product's current state.
type CartItem struct {
	Product  *Product
	Quantity int
}

func (i CartItem) Name() string { return i.Product.Name() }

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Weight is the total weight of the line in grams.
func (i CartItem) Weight() decimal.Decimal {
	return i.Product.Weight().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) RequiresShipping() bool { return i.Product.RequiresShipping() }
func (i CartItem) IsExpired() bool { return i.Product.IsExpired() }

// Cart keeps items in insertion order. It never mutates product stock.
type Cart struct {
	items []CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add appends a line after checking the product can cover it right now.
func (c *Cart) Add(product *Product, quantity int) error {
	if product == nil {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > product.Quantity() {
		return &OutOfStockError{
			Product:   product.Name(),
			Requested: quantity,
			Available: product.Quantity(),
		}
	}

	c.items = append(c.items, CartItem{Product: product, Quantity: quantity})
	return nil
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) ShippableItems() []CartItem {
	var out []CartItem
	for _, it := range c.items {
		if it.RequiresShipping() {
			out = append(out, it)
		}
	}
	return out
}

// Validate checks the cart can be sold as it stands now: it has items, none
// is expired, and every product can cover what the cart asks of it. Items are
// checked in cart order and the first problem is returned.
func (c *Cart) Validate() error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}

	demand := make(map[*Product]int, len(c.items))
	for _, it := range c.items {
		if it.IsExpired() {
			return &ExpiredProductError{Product: it.Name()}
		}

		demand[it.Product] += it.Quantity
		if demand[it.Product] > it.Product.Quantity() {
			return &OutOfStockError{
				Product:   it.Name(),
				Requested: demand[it.Product],
				Available: it.Product.Quantity(),
			}
		}
	}
	return nil
}
