package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors/constants"
)

const publishTimeout = 5 * time.Second

// Publisher sends shipment notices to the warehouse queue as JSON, stamped
// with the request id of the checkout that produced them. Receipts are not
// published.
type Publisher struct {
	pool  *ChannelPool
	queue string
}

func NewPublisher(pool *ChannelPool, queue string) *Publisher {
	return &Publisher{pool: pool, queue: queue}
}

func (p *Publisher) EmitShipment(ctx context.Context, n domain.ShipmentNotice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal shipment notice: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	var headers amqp.Table
	if id := interceptors.RequestIDFromContext(ctx); id != "unknown" {
		headers = amqp.Table{constants.HeaderXRequestId: id}
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    n.CheckoutID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish shipment notice: %w", err)
	}

	slog.DebugContext(ctx, "shipment notice published", "checkout_id", n.CheckoutID, "queue", p.queue)
	return nil
}

func (p *Publisher) EmitReceipt(context.Context, domain.Receipt) error { return nil }
