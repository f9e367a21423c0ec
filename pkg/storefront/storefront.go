// Package storefront gives each profile one consistent view of its cart,
// favorites, saved filters and order history.
//
// All of a profile's keys live under ProfilePrefix in the shared store, so a
// profile's cart is the same list whichever replica serves it. Every store
// opened through a Session reports its writes to the badge hub, which
// forwards them to the profile's live subscribers.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"autobesa/pkg/badge"
	"autobesa/pkg/cart"
	"autobesa/pkg/catalog"
	"autobesa/pkg/checkout"
	"autobesa/pkg/favorites"
	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
	"autobesa/pkg/money"
	"autobesa/pkg/order"
)

// ErrInvalidProfile is returned for profile names that cannot be used as a
// key prefix.
var ErrInvalidProfile = errors.New("invalid profile name")

const (
	profileKeyPrefix = "profile:"
	maxProfileLen    = 64
)

// ProfilePrefix is the key prefix of every value owned by profile.
func ProfilePrefix(profile string) string {
	return profileKeyPrefix + profile + ":"
}

// SplitKey reverses ProfilePrefix.
func SplitKey(key string) (profile, local string, ok bool) {
	rest, ok := strings.CutPrefix(key, profileKeyPrefix)
	if !ok {
		return "", "", false
	}
	return strings.Cut(rest, ":")
}

// ValidateProfile checks that name can be used as a profile.
func ValidateProfile(name string) error {
	if name == "" || len(name) > maxProfileLen || strings.ContainsAny(name, ": \t\r\n") {
		return ErrInvalidProfile
	}
	return nil
}

// OrdersFunc returns the order history of profile. scoped is the profile's
// namespaced store.
type OrdersFunc func(profile string, scoped kv.Store) order.Repository

// Options tune a Service.
type Options struct {
	Pricing  cart.Pricing
	PageSize int
}

// Service opens profile sessions over one shared store handle.
type Service struct {
	store   kv.Store
	catalog *catalog.Catalog
	orders  OrdersFunc
	opts    Options
	hub     *badge.Hub
	log     *logger.Logger
}

// New returns a Service. store is this process's handle on the shared store.
func New(store kv.Store, cat *catalog.Catalog, orders OrdersFunc, opts Options, log *logger.Logger) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = 8
	}
	s := &Service{store: store, catalog: cat, orders: orders, opts: opts, log: log}
	s.hub = badge.NewHub(s.sources, SplitKey, log)
	return s
}

// Hub returns the badge hub. Run it against the store's watcher to pick up
// changes made by other processes.
func (s *Service) Hub() *badge.Hub { return s.hub }

// Catalog returns the card set.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) sources(profile string) badge.Sources {
	scoped := kv.Namespace(s.store, ProfilePrefix(profile))
	c := cart.New(scoped, nil, s.opts.Pricing, s.log)
	f := favorites.New(scoped, nil, s.log)
	return badge.Sources{Cart: c.Count, Favorites: f.Count}
}

// Session is one profile's handle on its stores.
type Session struct {
	Profile   string
	Cart      *cart.Repository
	Favorites *favorites.Repository
	Filters   *catalog.FilterStore
	Orders    order.Repository
	Checkout  *checkout.Service

	hub      *badge.Hub
	catalog  *catalog.Catalog
	pageSize int
}

// Open returns the session of profile.
func (s *Service) Open(profile string) *Session {
	scoped := kv.Namespace(s.store, ProfilePrefix(profile))
	obs := s.hub.Notifier(profile)
	log := s.log.With("profile", profile)

	c := cart.New(scoped, obs, s.opts.Pricing, log)
	orders := s.orders(profile, scoped)
	return &Session{
		Profile:   profile,
		Cart:      c,
		Favorites: favorites.New(scoped, obs, log),
		Filters:   catalog.NewFilterStore(scoped, log),
		Orders:    orders,
		Checkout:  checkout.NewService(c, orders, log),
		hub:       s.hub,
		catalog:   s.catalog,
		pageSize:  s.opts.PageSize,
	}
}

// Badges reads the profile's badge counts.
func (ss *Session) Badges(ctx context.Context) badge.Counts {
	return ss.hub.Counts(ctx, ss.Profile)
}

// WatchBadges calls fn with the current counts and again on every change
// until cancel is called. fn must not block.
func (ss *Session) WatchBadges(ctx context.Context, fn func(badge.Counts)) (cancel func()) {
	return ss.hub.Subscribe(ctx, ss.Profile, fn)
}

// AddCard puts qty of the catalog card id into the cart.
func (ss *Session) AddCard(ctx context.Context, id string, qty int) ([]cart.Item, error) {
	card, err := ss.catalog.Card(id)
	if err != nil {
		return nil, err
	}
	return ss.Cart.AddItem(ctx, cart.AddRequest{
		ID:       card.ID,
		Model:    card.Title,
		Price:    card.Price,
		Image:    card.Image,
		Quantity: qty,
	})
}

// AddFromDetail adds one of the car shown on a detail page.
func (ss *Session) AddFromDetail(ctx context.Context, page io.Reader) ([]cart.Item, error) {
	d, err := catalog.ParseDetailPage(page)
	if err != nil {
		return nil, err
	}
	return ss.Cart.AddItem(ctx, cart.AddRequest{ID: d.ID, Model: d.Name, Price: d.Price, Image: d.Image, Quantity: 1})
}

// Listing is one rendered catalog page.
type Listing struct {
	catalog.Page
	Criteria catalog.Criteria `json:"criteria"`
	Sort     catalog.SortKey  `json:"sort"`
}

// Browse renders page number under the saved criteria.
func (ss *Session) Browse(ctx context.Context, sort catalog.SortKey, number int) (Listing, error) {
	c, err := ss.Filters.Load(ctx)
	if err != nil {
		return Listing{}, err
	}
	return ss.render(c, sort, number)
}

// ApplyFilters saves c and renders its first page.
func (ss *Session) ApplyFilters(ctx context.Context, c catalog.Criteria, sort catalog.SortKey) (Listing, error) {
	if err := ss.Filters.Save(ctx, c); err != nil {
		return Listing{}, err
	}
	return ss.render(c, sort, 1)
}

// ResetFilters forgets the saved criteria and renders the first page of the
// unfiltered catalog.
func (ss *Session) ResetFilters(ctx context.Context, sort catalog.SortKey) (Listing, error) {
	if err := ss.Filters.Reset(ctx); err != nil {
		return Listing{}, err
	}
	return ss.render(catalog.Criteria{}, sort, 1)
}

func (ss *Session) render(c catalog.Criteria, sort catalog.SortKey, number int) (Listing, error) {
	v := catalog.NewView(ss.catalog)
	if err := v.Sort(sort); err != nil {
		return Listing{}, err
	}
	v.ApplyFilters(c)
	return Listing{Page: v.Paginate(ss.pageSize, number), Criteria: c, Sort: sort}, nil
}

// QuickView is the modal preview of a card.
type QuickView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Meta       string `json:"meta"`
	Price      string `json:"price"`
	Image      string `json:"image"`
	DetailsURL string `json:"detailsUrl"`
	Favorited  bool   `json:"favorited"`
}

// QuickView previews card id.
func (ss *Session) QuickView(ctx context.Context, id string) (QuickView, error) {
	card, err := ss.catalog.Card(id)
	if err != nil {
		return QuickView{}, err
	}
	fav, err := ss.Favorites.IsFavorited(ctx, id)
	if err != nil {
		return QuickView{}, fmt.Errorf("reading favorites: %w", err)
	}
	price := card.PriceText
	if price == "" {
		price = money.Format(card.Price)
	}
	details := card.DetailsURL
	if details == "" {
		details = "#"
	}
	return QuickView{
		ID:         card.ID,
		Title:      card.Title,
		Meta:       card.Meta,
		Price:      price,
		Image:      card.Image,
		DetailsURL: details,
		Favorited:  fav,
	}, nil
}

// FavoriteCards resolves the favorites list against the catalog. Ids with no
// card on this catalog are skipped.
func (ss *Session) FavoriteCards(ctx context.Context) ([]catalog.Card, error) {
	ids, err := ss.Favorites.List(ctx)
	if err != nil {
		return nil, err
	}
	return ss.catalog.Resolve(ids), nil
}
