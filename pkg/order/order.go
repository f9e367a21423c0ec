package order

import (
	"context"
	"errors"
	"time"

	"autobesa/pkg/cart"
)

// Key is the storage key of the order history list.
const Key = "autobesa_orders_v1"

// Customer holds the checkout form fields.
type Customer struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Payment  string `json:"payment"`
}

// Order is a write-once snapshot of a cart at checkout.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Customer  Customer    `json:"customer"`
	Items     []cart.Item `json:"items"`
	Totals    cart.Totals `json:"totals"`
}

// Repository defines the append-only order history.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns orders in the order they were created.
	List(ctx context.Context) ([]Order, error)
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrExists indicates an order with the same id was already recorded.
	ErrExists = errors.New("order already exists")
)
