// Package report delivers shipment notices and receipts to their readers.
package report

import (
	"context"
	"errors"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

// Sink receives the documents produced by a completed checkout.
type Sink interface {
	EmitShipment(ctx context.Context, notice domain.ShipmentNotice) error
	EmitReceipt(ctx context.Context, receipt domain.Receipt) error
}

// MultiSink fans out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) EmitShipment(ctx context.Context, notice domain.ShipmentNotice) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitShipment(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) EmitReceipt(ctx context.Context, receipt domain.Receipt) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitReceipt(ctx, receipt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) EmitShipment(context.Context, domain.ShipmentNotice) error { return nil }
func (Discard) EmitReceipt(context.Context, domain.Receipt) error { return nil }
