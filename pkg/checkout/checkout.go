// Package checkout turns the current cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"autobesa/pkg/cart"
	"autobesa/pkg/logger"
	"autobesa/pkg/order"
)

// ConfirmationPage is the view that shows a placed order. The order id is
// carried in the fragment.
const ConfirmationPage = "order-confirmation.html"

// RedirectDelay gives the client time to flush its own storage writes before
// navigating to the confirmation view.
const RedirectDelay = 200 * time.Millisecond

// ErrEmptyCart is returned when there is nothing to check out.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError lists the required customer fields that were blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Result describes a placed order and where to send the customer next.
type Result struct {
	Order         order.Order   `json:"order"`
	RedirectURL   string        `json:"redirectUrl"`
	RedirectDelay time.Duration `json:"redirectDelay"`
}

// Service places orders.
type Service struct {
	cart   *cart.Repository
	orders order.Repository
	log    *logger.Logger
	now    func() time.Time
	newID  func() string
}

// NewService returns a checkout service.
func NewService(c *cart.Repository, orders order.Repository, log *logger.Logger) *Service {
	return &Service{
		cart:   c,
		orders: orders,
		log:    log,
		now:    time.Now,
		newID:  func() string { return "order-" + uuid.NewString() },
	}
}

// Checkout validates the cart and customer, records the order and empties
// the cart. Nothing is changed when validation fails or the order cannot be
// recorded.
func (s *Service) Checkout(ctx context.Context, c order.Customer) (Result, error) {
	items, err := s.cart.Items(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	c = trim(c)
	if err := validate(c); err != nil {
		return Result{}, err
	}

	totals, err := cart.ComputeTotals(items, s.cart.Pricing())
	if err != nil {
		return Result{}, fmt.Errorf("pricing cart: %w", err)
	}
	o := order.Order{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		Customer:  c,
		Items:     items,
		Totals:    totals,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return Result{}, fmt.Errorf("recording order: %w", err)
	}

	// The order is committed at this point; a failed clear leaves a stale
	// cart behind but must not undo the order.
	if err := s.cart.Clear(ctx); err != nil {
		s.log.Error(ctx, "clearing cart after checkout", "order_id", o.ID, "error", err)
	}

	s.log.Info(ctx, "order placed", "order_id", o.ID, "items", len(o.Items), "total", o.Totals.Total)
	return Result{
		Order:         o,
		RedirectURL:   ConfirmationPage + "#" + o.ID,
		RedirectDelay: RedirectDelay,
	}, nil
}

func trim(c order.Customer) order.Customer {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Payment = strings.TrimSpace(c.Payment)
	return c
}

func validate(c order.Customer) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullname", c.FullName},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
