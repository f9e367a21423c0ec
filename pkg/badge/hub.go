package badge

import (
	"context"
	"sync"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

// SplitFunc maps a raw storage key to the profile it belongs to and the key
// within that profile.
type SplitFunc func(key string) (profile, local string, ok bool)

// Hub keeps one Observer for every profile that has a live subscriber and
// routes shared-store changes to them. A profile's observer is dropped when
// its last subscriber cancels.
type Hub struct {
	sources func(profile string) Sources
	split   SplitFunc
	log     *logger.Logger

	mu        sync.Mutex
	observers map[string]*watched
}

type watched struct {
	obs  *Observer
	refs int
}

// NewHub returns a Hub that builds observers from sources.
func NewHub(sources func(profile string) Sources, split SplitFunc, log *logger.Logger) *Hub {
	return &Hub{
		sources:   sources,
		split:     split,
		log:       log,
		observers: make(map[string]*watched),
	}
}

// Notifier returns what same-process writers of profile report to. It is a
// no-op while nobody subscribes to the profile.
func (h *Hub) Notifier(profile string) kv.Notifier {
	return kv.NotifierFunc(func(ctx context.Context, key string) {
		if o, ok := h.lookup(profile); ok {
			o.Notify(ctx, key)
		}
	})
}

// Subscribe registers fn for the counts of profile and publishes the current
// counts to it. fn must not block. The returned cancel is idempotent.
func (h *Hub) Subscribe(ctx context.Context, profile string, fn func(Counts)) (cancel func()) {
	h.mu.Lock()
	w, ok := h.observers[profile]
	if !ok {
		w = &watched{obs: NewObserver(h.sources(profile), h.log.With("profile", profile))}
		h.observers[profile] = w
	}
	w.refs++
	h.mu.Unlock()

	unsubscribe := w.obs.Subscribe(fn)
	w.obs.Refresh(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			h.mu.Lock()
			defer h.mu.Unlock()
			if w.refs--; w.refs == 0 && h.observers[profile] == w {
				delete(h.observers, profile)
			}
		})
	}
}

// Counts reads the current counts of profile. Subscribers of the profile
// receive them too.
func (h *Hub) Counts(ctx context.Context, profile string) Counts {
	if o, ok := h.lookup(profile); ok {
		return o.Refresh(ctx)
	}
	return NewObserver(h.sources(profile), h.log).Refresh(ctx)
}

// Len reports how many profiles are being watched.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

func (h *Hub) lookup(profile string) (*Observer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.observers[profile]
	if !ok {
		return nil, false
	}
	return w.obs, true
}

// Run applies changes from w until ctx is done. Changes for profiles nobody
// is subscribed to are dropped; a new subscriber reads fresh counts.
func (h *Hub) Run(ctx context.Context, w kv.Watcher) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	h.log.Info(ctx, "badge hub watching store")
	for c := range changes {
		profile, key, ok := h.split(c.Key)
		if !ok {
			continue
		}
		if o, ok := h.lookup(profile); ok {
			o.Notify(ctx, key)
		}
	}
	return ctx.Err()
}
