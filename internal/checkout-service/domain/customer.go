package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Customer struct {
	name    string
	balance decimal.Decimal
}

func NewCustomer(name string, balance decimal.Decimal) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" || balance.IsNegative() {
		return nil, ErrInvalidCustomer
	}
	return &Customer{name: name, balance: balance}, nil
}

func (c *Customer) Name() string { return c.name }
func (c *Customer) Balance() decimal.Decimal { return c.balance }

// Pay debits amount. The balance is left untouched when it cannot cover it.
func (c *Customer) Pay(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(c.balance) {
		return ErrInsufficientBalance
	}
	c.balance = c.balance.Sub(amount)
	return nil
}

// Refund gives back a previous payment.
func (c *Customer) Refund(amount decimal.Decimal) {
	if amount.IsPositive() {
		c.balance = c.balance.Add(amount)
	}
}

func (c *Customer) TopUp(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	c.balance = c.balance.Add(amount)
	return nil
}
