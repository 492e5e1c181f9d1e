package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/core/ports"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

var _ ports.Storefront = (*MemoryStorefront)(nil)

// Checkouter runs one checkout under a caller-chosen id and hands back the
// delivery of its documents as flush.
type Checkouter interface {
	CheckoutDeferred(ctx context.Context, id string, customer *domain.Customer, cart *domain.Cart) (domain.Receipt, func(context.Context), error)
}

type cartRecord struct {
	id         string
	customerID string
	status     entity.CartStatus
	checkoutID string
	productIDs []string
	cart       *domain.Cart
	createdAt  time.Time
}

// MemoryStorefront keeps products, customers and carts in process memory.
// One mutex guards all of it, so checkouts run one at a time and reads never
// see a checkout half done. Shipment notices and receipts go out after the
// mutex is released.
type MemoryStorefront struct {
	mu        sync.Mutex
	checkout  Checkouter
	products  map[string]*domain.Product
	customers map[string]*domain.Customer
	carts     map[string]*cartRecord
}

func NewMemoryStorefront(checkout Checkouter) *MemoryStorefront {
	return &MemoryStorefront{
		checkout:  checkout,
		products:  make(map[string]*domain.Product),
		customers: make(map[string]*domain.Customer),
		carts:     make(map[string]*cartRecord),
	}
}

func (s *MemoryStorefront) CreateProduct(_ context.Context, in entity.NewProduct) (*entity.Product, error) {
	var opts []domain.ProductOption
	if in.Expired != nil {
		opts = append(opts, domain.WithExpiry(*in.Expired))
	}
	if in.WeightGrams != nil {
		opts = append(opts, domain.WithShipping(*in.WeightGrams))
	}

	p, err := domain.NewProduct(in.Name, in.Price, in.Quantity, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.products[id] = p
	return productView(id, p), nil
}

func (s *MemoryStorefront) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	return productView(id, p), nil
}

func (s *MemoryStorefront) ExpireProduct(_ context.Context, id string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	if err := p.Expire(); err != nil {
		return nil, err
	}
	return productView(id, p), nil
}

func (s *MemoryStorefront) CreateCustomer(_ context.Context, name string, balance decimal.Decimal) (*entity.Customer, error) {
	c, err := domain.NewCustomer(name, balance)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.customers[id] = c
	return customerView(id, c), nil
}

func (s *MemoryStorefront) GetCustomer(_ context.Context, id string) (*entity.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, ports.ErrNotFound)
	}
	return customerView(id, c), nil
}

func (s *MemoryStorefront) TopUp(_ context.Context, id string, amount decimal.Decimal) (*entity.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, ports.ErrNotFound)
	}
	if err := c.TopUp(amount); err != nil {
		return nil, err
	}
	return customerView(id, c), nil
}

func (s *MemoryStorefront) CreateCart(_ context.Context, customerID string) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customerID]; !ok {
		return nil, fmt.Errorf("customer %s: %w", customerID, ports.ErrNotFound)
	}

	rec := &cartRecord{
		id:         uuid.NewString(),
		customerID: customerID,
		status:     entity.CartOpen,
		cart:       domain.NewCart(),
		createdAt:  time.Now().UTC(),
	}
	s.carts[rec.id] = rec
	return cartView(rec), nil
}

func (s *MemoryStorefront) GetCart(_ context.Context, id string) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.carts[id]
	if !ok {
		return nil, fmt.Errorf("cart %s: %w", id, ports.ErrNotFound)
	}
	return cartView(rec), nil
}

func (s *MemoryStorefront) AddItem(_ context.Context, cartID, productID string, quantity int) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("cart %s: %w", cartID, ports.ErrNotFound)
	}
	if rec.status != entity.CartOpen {
		return nil, ports.ErrCartClosed
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, ports.ErrNotFound)
	}

	if err := rec.cart.Add(p, quantity); err != nil {
		return nil, err
	}
	rec.productIDs = append(rec.productIDs, productID)
	return cartView(rec), nil
}

// Checkout charges the cart's owner for the cart and closes it on success.
// A failed checkout leaves the cart open and comes back as a
// *ports.CheckoutError.
func (s *MemoryStorefront) Checkout(ctx context.Context, cartID string) (domain.Receipt, error) {
	receipt, flush, err := s.checkoutLocked(ctx, cartID)
	if err != nil {
		return domain.Receipt{}, err
	}
	flush(ctx)
	return receipt, nil
}

func (s *MemoryStorefront) checkoutLocked(ctx context.Context, cartID string) (domain.Receipt, func(context.Context), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.carts[cartID]
	if !ok {
		return domain.Receipt{}, nil, fmt.Errorf("cart %s: %w", cartID, ports.ErrNotFound)
	}
	if rec.status != entity.CartOpen {
		return domain.Receipt{}, nil, ports.ErrCartClosed
	}
	customer, ok := s.customers[rec.customerID]
	if !ok {
		return domain.Receipt{}, nil, fmt.Errorf("customer %s: %w", rec.customerID, ports.ErrNotFound)
	}

	checkoutID := uuid.NewString()
	receipt, flush, err := s.checkout.CheckoutDeferred(ctx, checkoutID, customer, rec.cart)
	if err != nil {
		return domain.Receipt{}, nil, &ports.CheckoutError{CheckoutID: checkoutID, Err: err}
	}

	rec.status = entity.CartCheckedOut
	rec.checkoutID = checkoutID
	return receipt, flush, nil
}

func productView(id string, p *domain.Product) *entity.Product {
	return &entity.Product{
		ID:               id,
		Name:             p.Name(),
		Kind:             string(p.Kind()),
		Price:            p.Price(),
		Quantity:         p.Quantity(),
		Expirable:        p.Expirable(),
		Expired:          p.IsExpired(),
		RequiresShipping: p.RequiresShipping(),
		WeightGrams:      p.Weight(),
	}
}

func customerView(id string, c *domain.Customer) *entity.Customer {
	return &entity.Customer{ID: id, Name: c.Name(), Balance: c.Balance()}
}

func cartView(rec *cartRecord) *entity.Cart {
	items := rec.cart.Items()
	lines := make([]entity.CartLine, 0, len(items))
	for i, it := range items {
		lines = append(lines, entity.CartLine{
			ProductID: rec.productIDs[i],
			Name:      it.Name(),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}
	return &entity.Cart{
		ID:         rec.id,
		CustomerID: rec.customerID,
		Status:     rec.status,
		CheckoutID: rec.checkoutID,
		Lines:      lines,
		Subtotal:   rec.cart.Subtotal(),
		CreatedAt:  rec.createdAt,
	}
}
