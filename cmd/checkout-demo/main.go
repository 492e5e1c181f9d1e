// Command checkout-demo runs the sample storefront checkout and prints the
// shipment notice and receipt to stdout.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/app"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/config"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-checkout/internal/report"
)

func main() {
	cfg := config.Load()
	telemetry.InitLogger(cfg.LogLevel)

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		slog.Error("checkout failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	cheese, err := domain.NewProduct("Cheese", decimal.NewFromInt(100), 5,
		domain.WithShipping(decimal.NewFromInt(200)), domain.WithExpiry(false))
	if err != nil {
		return err
	}
	biscuits, err := domain.NewProduct("Biscuits", decimal.NewFromInt(50), 10, domain.WithExpiry(false))
	if err != nil {
		return err
	}
	// listed in the catalog but not bought
	if _, err := domain.NewProduct("TV", decimal.NewFromInt(500), 2, domain.WithShipping(decimal.NewFromInt(5000))); err != nil {
		return err
	}
	scratchCard, err := domain.NewProduct("Scratch Card", decimal.NewFromInt(10), 100)
	if err != nil {
		return err
	}

	customer, err := domain.NewCustomer("Mohamed Dwedar", decimal.NewFromInt(1000))
	if err != nil {
		return err
	}

	cart := domain.NewCart()
	for _, line := range []struct {
		p   *domain.Product
		qty int
	}{
		{cheese, 2},
		{biscuits, 1},
		{scratchCard, 1},
	} {
		if err := cart.Add(line.p, line.qty); err != nil {
			return err
		}
	}

	svc := app.NewService(app.Options{
		Sink:        report.NewTextSink(out),
		ShippingFee: cfg.ShippingFee,
	})
	_, err = svc.Checkout(ctx, customer, cart)
	return err
}
