package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

// TextSink prints the console layout of the shipment notice and receipt.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) EmitShipment(_ context.Context, n domain.ShipmentNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ew := &errWriter{w: s.w}
	ew.printf("\n** Shipment notice **\n")
	for _, l := range n.Lines {
		ew.printf("%dx %s \t %sg\n", l.Quantity, l.Name, l.WeightGrams.String())
	}
	ew.printf("Total package weight %skg\n", n.TotalWeightKg())
	return ew.err
}

func (s *TextSink) EmitReceipt(_ context.Context, r domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ew := &errWriter{w: s.w}
	ew.printf("\n** Checkout receipt **\n")
	for _, l := range r.Lines {
		ew.printf("%dx %s \t %s\n", l.Quantity, l.Name, l.Subtotal.String())
	}
	ew.printf("----------------------\n")
	ew.printf("Subtotal \t %s\n", r.Subtotal.String())
	ew.printf("Shipping \t %s\n", r.ShippingFee.String())
	ew.printf("Amount \t\t %s\n", r.Total.String())
	ew.printf("Balance \t %s\n", r.Balance.String())
	return ew.err
}

// errWriter keeps the first write error and skips the rest.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
