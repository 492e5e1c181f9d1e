package txlog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("checkout not found")

// Repository appends checkout transitions.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Reader looks up the current state of a checkout.
type Reader interface {
	GetLatest(ctx context.Context, checkoutID string) (*Entry, error)
	History(ctx context.Context, checkoutID string) ([]*Entry, error)
}
