// Package badge keeps the cart and favorites counters in step with the stores.
//
// An Observer holds the last counts of one profile. Writers in the same
// process call Notify after their own writes; changes made elsewhere arrive
// through Run from the store's watcher. Either way the affected counter is
// re-read and every subscriber receives the new counts.
package badge

import (
	"context"
	"strconv"
	"sync"

	"autobesa/pkg/cart"
	"autobesa/pkg/favorites"
	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

// Counts are the values shown by the badges.
type Counts struct {
	Cart      int `json:"cart"`
	Favorites int `json:"favorites"`
}

// View is how one badge renders.
type View struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Render shows n, hiding the badge when there is nothing to count.
func Render(n int) View {
	return View{Text: strconv.Itoa(n), Visible: n > 0}
}

// Views renders both badges.
func (c Counts) Views() map[string]View {
	return map[string]View{
		"cart":      Render(c.Cart),
		"favorites": Render(c.Favorites),
	}
}

// Sources read the current counts.
type Sources struct {
	Cart      func(ctx context.Context) (int, error)
	Favorites func(ctx context.Context) (int, error)
}

// Observer tracks the counts of one profile.
type Observer struct {
	src Sources
	log *logger.Logger

	mu     sync.Mutex
	counts Counts
	subs   map[int]func(Counts)
	nextID int
}

// NewObserver returns an Observer reading from src. Counts are zero until
// the first Refresh.
func NewObserver(src Sources, log *logger.Logger) *Observer {
	return &Observer{src: src, log: log, subs: make(map[int]func(Counts))}
}

// Counts returns the last observed counts.
func (o *Observer) Counts() Counts {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts
}

// Subscribe registers fn for every update and returns a function that
// removes it. fn must not block.
func (o *Observer) Subscribe(fn func(Counts)) (cancel func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Refresh re-reads both counters and publishes the result.
func (o *Observer) Refresh(ctx context.Context) Counts {
	c := Counts{
		Cart:      o.read(ctx, "cart", o.src.Cart),
		Favorites: o.read(ctx, "favorites", o.src.Favorites),
	}
	o.publish(func(cur *Counts) { *cur = c })
	return c
}

// Notify refreshes the counter stored under key. Other keys are ignored.
func (o *Observer) Notify(ctx context.Context, key string) {
	switch key {
	case cart.Key:
		n := o.read(ctx, "cart", o.src.Cart)
		o.publish(func(cur *Counts) { cur.Cart = n })
	case favorites.Key:
		n := o.read(ctx, "favorites", o.src.Favorites)
		o.publish(func(cur *Counts) { cur.Favorites = n })
	}
}

var _ kv.Notifier = (*Observer)(nil)

// Run applies changes from w until ctx is done.
func (o *Observer) Run(ctx context.Context, w kv.Watcher) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for c := range changes {
		o.Notify(ctx, c.Key)
	}
	return ctx.Err()
}

// read treats a failing source as zero so a broken store never breaks the
// page.
func (o *Observer) read(ctx context.Context, name string, fn func(context.Context) (int, error)) int {
	if fn == nil {
		return 0
	}
	n, err := fn(ctx)
	if err != nil {
		o.log.Warn(ctx, "reading badge count", "badge", name, "error", err)
		return 0
	}
	return n
}

func (o *Observer) publish(update func(*Counts)) {
	o.mu.Lock()
	update(&o.counts)
	c := o.counts
	subs := make([]func(Counts), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}
