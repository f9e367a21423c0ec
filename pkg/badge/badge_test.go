package badge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"autobesa/pkg/cart"
	"autobesa/pkg/favorites"
	"autobesa/pkg/kv"
	"autobesa/pkg/kv/memory"
	"autobesa/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRender(t *testing.T) {
	assert.Equal(t, View{Text: "0", Visible: false}, Render(0))
	assert.Equal(t, View{Text: "3", Visible: true}, Render(3))
	assert.Equal(t, map[string]View{
		"cart":      {Text: "2", Visible: true},
		"favorites": {Text: "0"},
	}, Counts{Cart: 2}.Views())
}

type tab struct {
	store *memory.Store
	obs   *Observer
	cart  *cart.Repository
	favs  *favorites.Repository
}

func openTab(b *memory.Backend) *tab {
	t := &tab{store: b.Open()}
	var c *cart.Repository
	var f *favorites.Repository
	t.obs = NewObserver(Sources{
		Cart:      func(ctx context.Context) (int, error) { return c.Count(ctx) },
		Favorites: func(ctx context.Context) (int, error) { return f.Count(ctx) },
	}, logger.NewNop())
	c = cart.New(t.store, t.obs, cart.DefaultPricing(), logger.NewNop())
	f = favorites.New(t.store, t.obs, logger.NewNop())
	t.cart, t.favs = c, f
	return t
}

func TestSameContextWritesRefresh(t *testing.T) {
	ctx := context.Background()
	a := openTab(memory.NewBackend())

	var mu sync.Mutex
	var seen []Counts
	cancel := a.obs.Subscribe(func(c Counts) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	_, err := a.cart.AddItem(ctx, cart.AddRequest{ID: "car-1", Model: "BMW", Price: 100, Quantity: 3})
	require.NoError(t, err)
	_, err = a.favs.Toggle(ctx, "car-1")
	require.NoError(t, err)

	assert.Equal(t, Counts{Cart: 3, Favorites: 1}, a.obs.Counts())

	cancel()
	require.NoError(t, a.cart.Clear(ctx))
	assert.Equal(t, Counts{Favorites: 1}, a.obs.Counts())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Counts{{Cart: 3}, {Cart: 3, Favorites: 1}}, seen)
}

func TestOtherContextWritesArriveThroughWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := memory.NewBackend()
	a, other := openTab(b), openTab(b)

	done := make(chan error, 1)
	go func() { done <- other.obs.Run(ctx, other.store) }()
	// Let the watcher subscribe before writing.
	time.Sleep(20 * time.Millisecond)

	_, err := a.cart.AddItem(ctx, cart.AddRequest{ID: "car-1", Model: "BMW", Price: 100, Quantity: 2})
	require.NoError(t, err)
	_, err = a.favs.Toggle(ctx, "car-9")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return other.obs.Counts() == Counts{Cart: 2, Favorites: 1}
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFailingSourceRendersZero(t *testing.T) {
	o := NewObserver(Sources{
		Cart: func(context.Context) (int, error) { return 0, errors.New("boom") },
	}, logger.NewNop())
	assert.Equal(t, Counts{}, o.Refresh(context.Background()))
}

func newHub(server kv.Store) *Hub {
	sources := func(profile string) Sources {
		ns := kv.Namespace(server, "profile:"+profile+":")
		c := cart.New(ns, nil, cart.DefaultPricing(), logger.NewNop())
		f := favorites.New(ns, nil, logger.NewNop())
		return Sources{Cart: c.Count, Favorites: f.Count}
	}
	split := func(key string) (string, string, bool) {
		rest, ok := strings.CutPrefix(key, "profile:")
		if !ok {
			return "", "", false
		}
		return strings.Cut(rest, ":")
	}
	return NewHub(sources, split, logger.NewNop())
}

// latest records the last counts a subscriber received.
type latest struct {
	mu sync.Mutex
	c  Counts
	n  int
}

func (l *latest) set(c Counts) {
	l.mu.Lock()
	l.c = c
	l.n++
	l.mu.Unlock()
}

func (l *latest) get() (Counts, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c, l.n
}

func TestHubRoutesByProfile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := memory.NewBackend()
	server, replica := b.Open(), b.Open()
	hub := newHub(server)

	var ana, bob latest
	defer hub.Subscribe(ctx, "ana", ana.set)()
	defer hub.Subscribe(ctx, "bob", bob.set)()

	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, server) }()
	time.Sleep(20 * time.Millisecond)

	anaCart := cart.New(kv.Namespace(replica, "profile:ana:"), nil, cart.DefaultPricing(), logger.NewNop())
	_, err := anaCart.AddItem(ctx, cart.AddRequest{ID: "car-1", Model: "BMW", Price: 100})
	require.NoError(t, err)
	require.NoError(t, replica.Set(ctx, "unrelated", "x"))

	assert.Eventually(t, func() bool { c, _ := ana.get(); return c.Cart == 1 }, time.Second, 5*time.Millisecond)
	c, n := bob.get()
	assert.Equal(t, Counts{}, c)
	assert.Equal(t, 1, n)

	cancel()
	<-done
}

func TestHubDropsProfilesWithoutSubscribers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBackend().Open()
	hub := newHub(store)

	// Reading and writing without a subscriber leaves nothing behind.
	hub.Notifier("guest-1").Notify(ctx, cart.Key)
	assert.Equal(t, Counts{}, hub.Counts(ctx, "guest-1"))
	assert.Zero(t, hub.Len())

	var first, second latest
	cancelFirst := hub.Subscribe(ctx, "ana", first.set)
	cancelSecond := hub.Subscribe(ctx, "ana", second.set)
	assert.Equal(t, 1, hub.Len())

	anaCart := cart.New(kv.Namespace(store, "profile:ana:"), hub.Notifier("ana"), cart.DefaultPricing(), logger.NewNop())
	_, err := anaCart.AddItem(ctx, cart.AddRequest{ID: "car-1", Model: "BMW", Price: 100, Quantity: 2})
	require.NoError(t, err)
	c, _ := second.get()
	assert.Equal(t, Counts{Cart: 2}, c)

	cancelFirst()
	cancelFirst()
	assert.Equal(t, 1, hub.Len())
	cancelSecond()
	assert.Zero(t, hub.Len())

	_, err = anaCart.AddItem(ctx, cart.AddRequest{ID: "car-1", Model: "BMW", Price: 100})
	require.NoError(t, err)
	_, n := second.get()
	assert.Equal(t, 2, n, "cancelled subscribers receive nothing")
	assert.Equal(t, Counts{Cart: 3}, hub.Counts(ctx, "ana"))
}
