package domain

import "github.com/shopspring/decimal"

type ShipmentLine struct {
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
}

// ShipmentNotice lists what goes into the package, in cart order.
type ShipmentNotice struct {
	CheckoutID       string          `json:"checkout_id,omitempty"`
	Lines            []ShipmentLine  `json:"lines"`
	TotalWeightGrams decimal.Decimal `json:"total_weight_grams"`
}

// TotalWeightKg is the package weight in kilograms rounded to one decimal.
func (n ShipmentNotice) TotalWeightKg() string {
	return n.TotalWeightGrams.Div(decimal.NewFromInt(1000)).StringFixed(1)
}

type ReceiptLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Receipt struct {
	CheckoutID  string          `json:"checkout_id"`
	Customer    string          `json:"customer"`
	Lines       []ReceiptLine   `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	Balance     decimal.Decimal `json:"balance"`
	Shipment    *ShipmentNotice `json:"shipment,omitempty"`
}
