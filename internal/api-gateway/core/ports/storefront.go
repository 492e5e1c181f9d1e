package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrCartClosed = errors.New("cart already checked out")
)

// CheckoutError is a failed checkout that reached the audit log under
// CheckoutID.
type CheckoutError struct {
	CheckoutID string
	Err        error
}

func (e *CheckoutError) Error() string { return "checkout " + e.CheckoutID + ": " + e.Err.Error() }

func (e *CheckoutError) Unwrap() error { return e.Err }

type Catalog interface {
	CreateProduct(ctx context.Context, p entity.NewProduct) (*entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ExpireProduct(ctx context.Context, id string) (*entity.Product, error)
}

type Customers interface {
	CreateCustomer(ctx context.Context, name string, balance decimal.Decimal) (*entity.Customer, error)
	GetCustomer(ctx context.Context, id string) (*entity.Customer, error)
	TopUp(ctx context.Context, id string, amount decimal.Decimal) (*entity.Customer, error)
}

type Carts interface {
	CreateCart(ctx context.Context, customerID string) (*entity.Cart, error)
	GetCart(ctx context.Context, id string) (*entity.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*entity.Cart, error)
	Checkout(ctx context.Context, cartID string) (domain.Receipt, error)
}

// Storefront is everything the HTTP API serves.
type Storefront interface {
	Catalog
	Customers
	Carts
}
