package report

import (
	"context"
	"errors"
	"sync"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

// Buffer holds documents in emit order until FlushTo hands them to a real
// sink. Emit calls on a Buffer never fail.
type Buffer struct {
	mu   sync.Mutex
	docs []any
}

func (b *Buffer) EmitShipment(_ context.Context, n domain.ShipmentNotice) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = append(b.docs, n)
	return nil
}

func (b *Buffer) EmitReceipt(_ context.Context, r domain.Receipt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = append(b.docs, r)
	return nil
}

// FlushTo emits every held document to s in order and empties the buffer.
func (b *Buffer) FlushTo(ctx context.Context, s Sink) error {
	b.mu.Lock()
	docs := b.docs
	b.docs = nil
	b.mu.Unlock()

	var errs []error
	for _, d := range docs {
		var err error
		switch doc := d.(type) {
		case domain.ShipmentNotice:
			err = s.EmitShipment(ctx, doc)
		case domain.Receipt:
			err = s.EmitReceipt(ctx, doc)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
