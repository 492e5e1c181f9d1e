package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog"
	"github.com/jcmexdev/ecommerce-checkout/internal/report"
	shippingservice "github.com/jcmexdev/ecommerce-checkout/internal/shipping-service"
)

// Recorder observes finished checkouts.
type Recorder interface {
	ObserveCheckout(result string, elapsed time.Duration)
}

type Options struct {
	Shipper     coordinator.Shipper
	Sink        report.Sink
	Log         txlog.Repository
	Metrics     Recorder
	ShippingFee decimal.Decimal
}

type Service struct {
	shipper     coordinator.Shipper
	sink        report.Sink
	log         txlog.Repository
	metrics     Recorder
	shippingFee decimal.Decimal
}

// NewService fills an unset shipper and sink with a stateless shipper and a
// discarding sink. Log and Metrics may stay nil. ShippingFee is taken as is,
// so a zero value makes shipping free.
func NewService(opts Options) *Service {
	s := &Service{
		shipper:     opts.Shipper,
		sink:        opts.Sink,
		log:         opts.Log,
		metrics:     opts.Metrics,
		shippingFee: opts.ShippingFee,
	}
	if s.shipper == nil {
		s.shipper = shippingservice.NewService()
	}
	if s.sink == nil {
		s.sink = report.Discard{}
	}
	return s
}

func (s *Service) ShippingFee() decimal.Decimal { return s.shippingFee }

// Checkout runs one purchase under a fresh checkout id.
func (s *Service) Checkout(ctx context.Context, customer *domain.Customer, cart *domain.Cart) (domain.Receipt, error) {
	return s.CheckoutWithID(ctx, uuid.NewString(), customer, cart)
}

// CheckoutWithID validates the cart, charges the customer, takes the items out
// of stock, ships what needs shipping and emits the receipt, in that order.
// Any failure before stock is taken leaves the customer and every product as
// they were.
func (s *Service) CheckoutWithID(ctx context.Context, id string, customer *domain.Customer, cart *domain.Cart) (domain.Receipt, error) {
	receipt, flush, err := s.CheckoutDeferred(ctx, id, customer, cart)
	if err != nil {
		return domain.Receipt{}, err
	}
	flush(ctx)
	return receipt, nil
}

// CheckoutDeferred runs the checkout like CheckoutWithID but holds the
// shipment notice and receipt until flush is called. Callers that guard
// customer and stock with a lock can release it before flushing. Delivery
// errors during flush are logged; the sale stands.
func (s *Service) CheckoutDeferred(ctx context.Context, id string, customer *domain.Customer, cart *domain.Cart) (domain.Receipt, func(context.Context), error) {
	start := time.Now()

	held := &report.Buffer{}
	ledger := &coordinator.Ledger{}
	steps := []coordinator.Step{
		coordinator.NewValidateCartStep(cart),
		coordinator.NewQuoteStep(cart, s.shippingFee, ledger),
		coordinator.NewChargeCustomerStep(customer, ledger),
		coordinator.NewReduceStockStep(cart),
		coordinator.NewShipStep(id, s.shipper, held, ledger),
		coordinator.NewReceiptStep(id, held, customer, cart, ledger),
	}

	err := coordinator.NewOrchestrator(id, steps, s.log).Start(ctx, cartPayload(customer, cart))
	if s.metrics != nil {
		s.metrics.ObserveCheckout(Result(err), time.Since(start))
	}
	if err != nil {
		return domain.Receipt{}, nil, err
	}

	flush := func(ctx context.Context) {
		if err := held.FlushTo(ctx, s.sink); err != nil {
			slog.ErrorContext(ctx, "checkout documents not delivered", "checkout_id", id, "error", err)
		}
	}
	return ledger.Receipt, flush, nil
}

// Result names the outcome of a checkout for metrics and logs.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrExpiredProduct):
		return "expired_product"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "error"
	}
}

type payloadLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type payload struct {
	Customer string        `json:"customer"`
	Lines    []payloadLine `json:"lines"`
}

func cartPayload(customer *domain.Customer, cart *domain.Cart) string {
	p := payload{Customer: customer.Name()}
	for _, it := range cart.Items() {
		p.Lines = append(p.Lines, payloadLine{
			Name:      it.Name(),
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price(),
		})
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
