// Package memory implements an in-memory order history.
package memory

import (
	"context"
	"sync"

	"autobesa/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	ids    []string
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{orders: make(map[string]order.Order)}
}

// Create records the order. Orders are never replaced.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return order.ErrExists
	}
	r.orders[o.ID] = o
	r.ids = append(r.ids, o.ID)
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

// List returns all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.orders[id])
	}
	return out, nil
}

// Profiles keeps one history per profile. A profile's history is allocated
// by its first order.
type Profiles struct {
	mu    sync.Mutex
	repos map[string]*Repository
}

// NewProfiles returns an empty set of per-profile histories.
func NewProfiles() *Profiles {
	return &Profiles{repos: make(map[string]*Repository)}
}

// ForProfile returns the history of profile.
func (p *Profiles) ForProfile(profile string) order.Repository {
	return profileHistory{p: p, profile: profile}
}

func (p *Profiles) repo(profile string, create bool) *Repository {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.repos[profile]
	if !ok && create {
		r = New()
		p.repos[profile] = r
	}
	return r
}

type profileHistory struct {
	p       *Profiles
	profile string
}

func (h profileHistory) Create(ctx context.Context, o order.Order) error {
	return h.p.repo(h.profile, true).Create(ctx, o)
}

func (h profileHistory) Get(ctx context.Context, id string) (order.Order, error) {
	if r := h.p.repo(h.profile, false); r != nil {
		return r.Get(ctx, id)
	}
	return order.Order{}, order.ErrNotFound
}

func (h profileHistory) List(ctx context.Context) ([]order.Order, error) {
	if r := h.p.repo(h.profile, false); r != nil {
		return r.List(ctx)
	}
	return []order.Order{}, nil
}
