package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrExpiredProduct      = errors.New("product is expired")
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotExpirable        = errors.New("product does not expire")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrInvalidCustomer     = errors.New("invalid customer")
)

// ExpiredProductError reports a cart item whose product expired before checkout.
type ExpiredProductError struct {
	Product string
}

func (e *ExpiredProductError) Error() string {
	return fmt.Sprintf("product %s is expired", e.Product)
}

func (e *ExpiredProductError) Is(target error) bool {
	return target == ErrExpiredProduct
}

// OutOfStockError reports a request for more units than a product holds.
type OutOfStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("only %d units of %s available, requested %d", e.Available, e.Product, e.Requested)
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}
