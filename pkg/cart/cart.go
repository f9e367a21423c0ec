// Package cart implements the persisted shopping cart.
//
// The cart is an ordered list of Items stored as JSON under Key. Every
// mutation reads the current list, applies the change, writes the list back
// and then tells the Notifier, because the storage-change notification only
// reaches other contexts.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
	"autobesa/pkg/money"
)

// Key is the storage key of the cart list.
const Key = "autobesa_cart_v1"

// Quantity bounds per line.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// MaxPrice is the highest unit price a line may carry, €100,000,000.00.
const MaxPrice = money.Cents(100_000_000_00)

// ErrInvalidPrice is returned for unit prices below zero or above MaxPrice.
var ErrInvalidPrice = errors.New("price out of range")

func validPrice(c money.Cents) error {
	if c < 0 || c > MaxPrice {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, c)
	}
	return nil
}

// AddRequest describes a product being added.
type AddRequest struct {
	// ID may be empty, in which case the line is matched by model and
	// price, or given a generated id.
	ID       string
	Model    string
	Price    money.Cents
	Image    string
	Quantity int
}

// Repository is the single access path to the stored cart.
type Repository struct {
	store    kv.Store
	notifier kv.Notifier
	pricing  Pricing
	log      *logger.Logger
	now      func() time.Time
}

// New returns a Repository over store. A nil notifier is allowed.
func New(store kv.Store, notifier kv.Notifier, pricing Pricing, log *logger.Logger) *Repository {
	if notifier == nil {
		notifier = kv.NopNotifier
	}
	return &Repository{store: store, notifier: notifier, pricing: pricing, log: log, now: time.Now}
}

// Items returns the stored lines. Missing or malformed data reads as an
// empty cart; stored lines priced out of range are skipped and quantities
// are clamped.
func (r *Repository) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	err := kv.GetJSON(ctx, r.store, Key, &items)
	switch {
	case err == nil:
		kept := make([]Item, 0, len(items))
		for _, it := range items {
			if err := validPrice(it.Price); err != nil {
				r.log.Warn(ctx, "discarding cart line", "id", it.ID, "error", err)
				continue
			}
			it.Quantity = clamp(it.Quantity)
			kept = append(kept, it)
		}
		return kept, nil
	case errors.Is(err, kv.ErrNotFound):
		return []Item{}, nil
	case errors.Is(err, kv.ErrMalformed):
		r.log.Warn(ctx, "discarding malformed cart", "error", err)
		return []Item{}, nil
	default:
		return nil, err
	}
}

// Count is the total quantity across lines.
func (r *Repository) Count(ctx context.Context) (int, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

// Totals computes the totals of the stored cart.
func (r *Repository) Totals(ctx context.Context) (Totals, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(items, r.pricing)
}

// Pricing returns the rates used by Totals.
func (r *Repository) Pricing() Pricing { return r.pricing }

// AddItem adds req.Quantity (at least one) of a product. An existing line
// with the same id, or else the same model and price, has its quantity
// increased up to MaxQuantity; otherwise a new line is appended. A price
// outside [0, MaxPrice] fails with ErrInvalidPrice.
func (r *Repository) AddItem(ctx context.Context, req AddRequest) ([]Item, error) {
	if err := validPrice(req.Price); err != nil {
		return nil, err
	}
	qty := req.Quantity
	if qty < MinQuantity {
		qty = MinQuantity
	}

	items, err := r.Items(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	if req.ID != "" {
		idx = indexByID(items, req.ID)
	}
	if idx < 0 {
		for i, it := range items {
			if it.Model == req.Model && it.Price == req.Price {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		items[idx].Quantity = clamp(items[idx].Quantity + qty)
	} else {
		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		items = append(items, Item{
			ID:        id,
			Model:     req.Model,
			Price:     req.Price,
			Quantity:  clamp(qty),
			Image:     req.Image,
			DateAdded: r.now().UTC(),
		})
	}

	if err := r.save(ctx, items); err != nil {
		return nil, err
	}
	r.log.Debug(ctx, "cart item added", "id", req.ID, "model", req.Model, "quantity", qty)
	return items, nil
}

// UpdateQuantity sets the quantity of the line with id, clamped to
// [MinQuantity, MaxQuantity]. An unknown id leaves the cart untouched.
func (r *Repository) UpdateQuantity(ctx context.Context, id string, qty int) ([]Item, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexByID(items, id)
	if idx < 0 {
		return items, nil
	}
	items[idx].Quantity = clamp(qty)
	if err := r.save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveItem drops the line with id. Removing an absent id is a no-op.
func (r *Repository) RemoveItem(ctx context.Context, id string) ([]Item, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return items, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear deletes the stored list.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	r.notifier.Notify(ctx, Key)
	return nil
}

func (r *Repository) save(ctx context.Context, items []Item) error {
	if err := kv.SetJSON(ctx, r.store, Key, items); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	r.notifier.Notify(ctx, Key)
	return nil
}

func indexByID(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clamp(q int) int {
	return max(MinQuantity, min(MaxQuantity, q))
}
