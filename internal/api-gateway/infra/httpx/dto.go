package httpx

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity"`
	Expired     *bool            `json:"expired,omitempty"`
	WeightGrams *decimal.Decimal `json:"weight_grams,omitempty"`
}

type CreateCustomerRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateCartRequest struct {
	CustomerID string `json:"customer_id"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ProductResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	Expirable        bool            `json:"expirable"`
	Expired          bool            `json:"expired"`
	RequiresShipping bool            `json:"requires_shipping"`
	WeightGrams      decimal.Decimal `json:"weight_grams"`
}

type CustomerResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type CartLineResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	Status     string             `json:"status"`
	CheckoutID string             `json:"checkout_id,omitempty"`
	Lines      []CartLineResponse `json:"lines"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	CreatedAt  string             `json:"created_at"`
}

type CheckoutLogEntryResponse struct {
	Status    string   `json:"status"`
	Step      string   `json:"step,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	TraceID   string   `json:"trace_id,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

type CheckoutLogResponse struct {
	CheckoutID string                     `json:"checkout_id"`
	Status     string                     `json:"status"`
	Terminal   bool                       `json:"terminal"`
	History    []CheckoutLogEntryResponse `json:"history"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	CheckoutID string `json:"checkout_id,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
