package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/config"
)

func TestRunPrintsSampleCheckout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), config.Config{ShippingFee: config.DefaultShippingFee}, &out))

	want := "\n** Shipment notice **\n" +
		"2x Cheese \t 400g\n" +
		"Total package weight 0.4kg\n" +
		"\n** Checkout receipt **\n" +
		"2x Cheese \t 200\n" +
		"1x Biscuits \t 50\n" +
		"1x Scratch Card \t 10\n" +
		"----------------------\n" +
		"Subtotal \t 260\n" +
		"Shipping \t 30\n" +
		"Amount \t\t 290\n" +
		"Balance \t 710\n"
	assert.Equal(t, want, out.String())
}
