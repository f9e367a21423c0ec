// Package kvstore keeps the order history as a JSON list under order.Key in
// the shared key-value store.
package kvstore

import (
	"context"
	"errors"
	"fmt"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
	"autobesa/pkg/order"
)

// Repository implements order.Repository on a kv.Store.
type Repository struct {
	store kv.Store
	log   *logger.Logger
}

// New returns a Repository over store.
func New(store kv.Store, log *logger.Logger) *Repository {
	return &Repository{store: store, log: log}
}

// Create appends o to the history.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	orders, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range orders {
		if existing.ID == o.ID {
			return order.ErrExists
		}
	}
	orders = append(orders, o)
	if err := kv.SetJSON(ctx, r.store, order.Key, orders); err != nil {
		return fmt.Errorf("saving order %s: %w", o.ID, err)
	}
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	orders, err := r.List(ctx)
	if err != nil {
		return order.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

// List returns the history oldest first. A malformed history reads as empty.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	err := kv.GetJSON(ctx, r.store, order.Key, &orders)
	switch {
	case err == nil:
		return orders, nil
	case errors.Is(err, kv.ErrNotFound):
		return []order.Order{}, nil
	case errors.Is(err, kv.ErrMalformed):
		r.log.Warn(ctx, "discarding malformed order history", "error", err)
		return []order.Order{}, nil
	default:
		return nil, err
	}
}
