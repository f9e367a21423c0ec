package kv

import (
	"context"
	"strings"
)

// Namespaced scopes a store to keys beginning with a fixed prefix. Callers use
// the short key; the prefix is added on the way in and stripped from watched
// changes on the way out.
type Namespaced struct {
	store  Store
	prefix string
}

// Namespace returns s restricted to prefix.
func Namespace(s Store, prefix string) *Namespaced {
	return &Namespaced{store: s, prefix: prefix}
}

// Prefix returns the namespace prefix.
func (n *Namespaced) Prefix() string { return n.prefix }

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

// Watch forwards changes under the prefix with the prefix removed.
func (n *Namespaced) Watch(ctx context.Context) (<-chan Change, error) {
	w, ok := n.store.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	in, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for c := range in {
			key, ok := strings.CutPrefix(c.Key, n.prefix)
			if !ok {
				continue
			}
			c.Key = key
			select {
			case out <- c:
			case <-ctx.Done():
				// Drain so the source can close its channel.
				for range in {
				}
				return
			}
		}
	}()
	return out, nil
}
