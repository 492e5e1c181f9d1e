package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a point-in-time view of a catalog product.
type Product struct {
	ID               string
	Name             string
	Kind             string
	Price            decimal.Decimal
	Quantity         int
	Expirable        bool
	Expired          bool
	RequiresShipping bool
	WeightGrams      decimal.Decimal
}

type Customer struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

type CartStatus string

const (
	CartOpen       CartStatus = "OPEN"
	CartCheckedOut CartStatus = "CHECKED_OUT"
)

type CartLine struct {
	ProductID string
	Name      string
	Quantity  int
	Subtotal  decimal.Decimal
}

type Cart struct {
	ID         string
	CustomerID string
	Status     CartStatus
	CheckoutID string
	Lines      []CartLine
	Subtotal   decimal.Decimal
	CreatedAt  time.Time
}

type NewProduct struct {
	Name     string
	Price    decimal.Decimal
	Quantity int

	// Expired is nil for products that never expire.
	Expired *bool
	// WeightGrams is nil for products that are not shipped.
	WeightGrams *decimal.Decimal
}
