package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var flatFee = decimal.NewFromInt(30)

func TestNewQuote(t *testing.T) {
	t.Run("fee applies once with shippable items", func(t *testing.T) {
		heavy := mustProduct(t, "Fridge", 900, 3, WithShipping(decimal.NewFromInt(60000)))
		light := mustProduct(t, "Pen", 1, 50, WithShipping(decimal.NewFromInt(5)))
		cart := NewCart()
		require.NoError(t, cart.Add(heavy, 3))
		require.NoError(t, cart.Add(light, 40))

		q := NewQuote(cart, flatFee)
		assert.True(t, q.ShippingFee.Equal(flatFee))
		assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(2740)))
		assert.True(t, q.Total.Equal(decimal.NewFromInt(2770)))
		assert.True(t, q.RequiresShipping())
	})

	t.Run("no fee without shippable items", func(t *testing.T) {
		card := mustProduct(t, "Scratch Card", 10, 100)
		cart := NewCart()
		require.NoError(t, cart.Add(card, 3))

		q := NewQuote(cart, flatFee)
		assert.True(t, q.ShippingFee.IsZero())
		assert.True(t, q.Total.Equal(decimal.NewFromInt(30)))
		assert.False(t, q.RequiresShipping())
	})
}

func TestCartValidate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, NewCart().Validate(), ErrEmptyCart)
	})

	t.Run("expired item", func(t *testing.T) {
		milk := mustProduct(t, "Milk", 20, 3, WithExpiry(false))
		cart := NewCart()
		require.NoError(t, cart.Add(milk, 1))
		require.NoError(t, milk.Expire())

		err := cart.Validate()
		assert.ErrorIs(t, err, ErrExpiredProduct)
		assert.EqualError(t, err, "product Milk is expired")
	})

	t.Run("stock dropped after add", func(t *testing.T) {
		tv := mustProduct(t, "TV", 500, 2)
		cart := NewCart()
		require.NoError(t, cart.Add(tv, 2))
		require.NoError(t, tv.ReduceQuantity(1))

		assert.ErrorIs(t, cart.Validate(), ErrOutOfStock)
	})

	t.Run("same product in two lines", func(t *testing.T) {
		tv := mustProduct(t, "TV", 500, 3)
		cart := NewCart()
		require.NoError(t, cart.Add(tv, 2))
		require.NoError(t, cart.Add(tv, 2))

		var oos *OutOfStockError
		require.ErrorAs(t, cart.Validate(), &oos)
		assert.Equal(t, 4, oos.Requested)
		assert.Equal(t, 3, oos.Available)
	})

	t.Run("first failing item wins", func(t *testing.T) {
		milk := mustProduct(t, "Milk", 20, 3, WithExpiry(true))
		tv := mustProduct(t, "TV", 500, 1)
		cart := NewCart()
		require.NoError(t, cart.Add(tv, 1))
		require.NoError(t, cart.Add(milk, 1))
		require.NoError(t, tv.ReduceQuantity(1))

		assert.ErrorIs(t, cart.Validate(), ErrOutOfStock)
	})
}
