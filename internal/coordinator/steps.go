package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/report"
)

// Shipper turns shippable cart items into a shipment notice.
type Shipper interface {
	Ship(items []domain.CartItem) domain.ShipmentNotice
}

// Ledger carries what one step produces to the steps after it.
type Ledger struct {
	Quote   domain.Quote
	Notice  *domain.ShipmentNotice
	Receipt domain.Receipt
}

// --- ValidateCartStep ---

type ValidateCartStep struct {
	cart *domain.Cart
}

func NewValidateCartStep(cart *domain.Cart) *ValidateCartStep {
	return &ValidateCartStep{cart: cart}
}

func (s *ValidateCartStep) Name() string { return "Validate_Cart_Step" }

func (s *ValidateCartStep) Execute(ctx context.Context) error {
	return s.cart.Validate()
}

func (s *ValidateCartStep) Compensate(ctx context.Context) error { return nil }

// --- QuoteStep ---

type QuoteStep struct {
	cart    *domain.Cart
	flatFee decimal.Decimal
	ledger  *Ledger
}

func NewQuoteStep(cart *domain.Cart, flatFee decimal.Decimal, ledger *Ledger) *QuoteStep {
	return &QuoteStep{cart: cart, flatFee: flatFee, ledger: ledger}
}

func (s *QuoteStep) Name() string { return "Quote_Step" }

func (s *QuoteStep) Execute(ctx context.Context) error {
	s.ledger.Quote = domain.NewQuote(s.cart, s.flatFee)
	return nil
}

func (s *QuoteStep) Compensate(ctx context.Context) error {
	s.ledger.Quote = domain.Quote{}
	return nil
}

// --- ChargeCustomerStep ---

type ChargeCustomerStep struct {
	customer *domain.Customer
	ledger   *Ledger
	charged  decimal.Decimal
}

func NewChargeCustomerStep(customer *domain.Customer, ledger *Ledger) *ChargeCustomerStep {
	return &ChargeCustomerStep{customer: customer, ledger: ledger}
}

func (s *ChargeCustomerStep) Name() string { return "Charge_Customer_Step" }

func (s *ChargeCustomerStep) Execute(ctx context.Context) error {
	total := s.ledger.Quote.Total
	if err := s.customer.Pay(total); err != nil {
		return err
	}
	s.charged = total
	return nil
}

func (s *ChargeCustomerStep) Compensate(ctx context.Context) error {
	s.customer.Refund(s.charged)
	s.charged = decimal.Zero
	return nil
}

// --- ReduceStockStep ---

type ReduceStockStep struct {
	cart    *domain.Cart
	reduced []domain.CartItem
}

func NewReduceStockStep(cart *domain.Cart) *ReduceStockStep {
	return &ReduceStockStep{cart: cart}
}

func (s *ReduceStockStep) Name() string { return "Reduce_Stock_Step" }

// Execute takes every line out of stock in cart order. A failed line puts
// back the lines already taken before returning.
func (s *ReduceStockStep) Execute(ctx context.Context) error {
	for _, it := range s.cart.Items() {
		if err := it.Product.ReduceQuantity(it.Quantity); err != nil {
			_ = s.Compensate(ctx)
			return fmt.Errorf("reduce stock of %s: %w", it.Name(), err)
		}
		s.reduced = append(s.reduced, it)
	}
	return nil
}

func (s *ReduceStockStep) Compensate(ctx context.Context) error {
	for i := len(s.reduced) - 1; i >= 0; i-- {
		it := s.reduced[i]
		if err := it.Product.Restock(it.Quantity); err != nil {
			return fmt.Errorf("restock %s: %w", it.Name(), err)
		}
	}
	s.reduced = nil
	return nil
}

// --- ShipStep ---

type ShipStep struct {
	checkoutID string
	shipper    Shipper
	sink       report.Sink
	ledger     *Ledger
}

// NewShipStep emits a shipment notice when the quote has shippable items.
func NewShipStep(checkoutID string, shipper Shipper, sink report.Sink, ledger *Ledger) *ShipStep {
	return &ShipStep{
		checkoutID: checkoutID,
		shipper:    shipper,
		sink:       sink,
		ledger:     ledger,
	}
}

func (s *ShipStep) Name() string { return "Ship_Step" }

func (s *ShipStep) Execute(ctx context.Context) error {
	if !s.ledger.Quote.RequiresShipping() {
		return nil
	}

	n := s.shipper.Ship(s.ledger.Quote.Shippable)
	n.CheckoutID = s.checkoutID
	s.ledger.Notice = &n

	// the sale is already committed; a lost notice is logged, not undone
	if err := s.sink.EmitShipment(ctx, n); err != nil {
		slog.ErrorContext(ctx, "shipment notice not delivered", "checkout_id", s.checkoutID, "error", err)
	}
	return nil
}

// Compensate is a no-op: a sent notice cannot be recalled.
func (s *ShipStep) Compensate(ctx context.Context) error { return nil }

// --- ReceiptStep ---

type ReceiptStep struct {
	checkoutID string
	sink       report.Sink
	customer   *domain.Customer
	cart       *domain.Cart
	ledger     *Ledger
}

func NewReceiptStep(checkoutID string, sink report.Sink, customer *domain.Customer, cart *domain.Cart, ledger *Ledger) *ReceiptStep {
	return &ReceiptStep{
		checkoutID: checkoutID,
		sink:       sink,
		customer:   customer,
		cart:       cart,
		ledger:     ledger,
	}
}

func (s *ReceiptStep) Name() string { return "Receipt_Step" }

func (s *ReceiptStep) Execute(ctx context.Context) error {
	items := s.cart.Items()
	lines := make([]domain.ReceiptLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.ReceiptLine{
			Name:     it.Name(),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
		})
	}

	q := s.ledger.Quote
	s.ledger.Receipt = domain.Receipt{
		CheckoutID:  s.checkoutID,
		Customer:    s.customer.Name(),
		Lines:       lines,
		Subtotal:    q.Subtotal,
		ShippingFee: q.ShippingFee,
		Total:       q.Total,
		Balance:     s.customer.Balance(),
		Shipment:    s.ledger.Notice,
	}

	if err := s.sink.EmitReceipt(ctx, s.ledger.Receipt); err != nil {
		slog.ErrorContext(ctx, "receipt not delivered", "checkout_id", s.checkoutID, "error", err)
	}
	return nil
}

func (s *ReceiptStep) Compensate(ctx context.Context) error { return nil }
