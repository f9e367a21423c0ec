// Package memory implements an in-process key-value backend.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"autobesa/pkg/kv"
)

// watchBuffer bounds the changes queued for a slow watcher; further changes
// are dropped until it catches up.
const watchBuffer = 64

// Backend is the storage shared by every context opened on it.
type Backend struct {
	mu   sync.RWMutex
	data map[string]string

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

type subscriber struct {
	origin string
	ch     chan kv.Change
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		data: make(map[string]string),
		subs: make(map[*subscriber]struct{}),
	}
}

// Open returns a new context on the backend.
func (b *Backend) Open() *Store {
	return &Store{b: b, origin: uuid.NewString()}
}

// Store is one context's handle on a Backend.
type Store struct {
	b      *Backend
	origin string
}

// Origin identifies this context in published changes.
func (s *Store) Origin() string { return s.origin }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	v, ok := s.b.data[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.b.mu.Lock()
	s.b.data[key] = value
	s.b.mu.Unlock()

	s.b.publish(kv.Change{Key: key, NewValue: value, Origin: s.origin})
	return nil
}

// Delete removes key. Deleting a missing key is not an error and publishes
// nothing.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.b.mu.Lock()
	_, ok := s.b.data[key]
	delete(s.b.data, key)
	s.b.mu.Unlock()

	if ok {
		s.b.publish(kv.Change{Key: key, Deleted: true, Origin: s.origin})
	}
	return nil
}

// Watch delivers changes made through other contexts until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan kv.Change, error) {
	sub := &subscriber{origin: s.origin, ch: make(chan kv.Change, watchBuffer)}

	s.b.subsMu.Lock()
	s.b.subs[sub] = struct{}{}
	s.b.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.b.subsMu.Lock()
		delete(s.b.subs, sub)
		close(sub.ch)
		s.b.subsMu.Unlock()
	}()

	return sub.ch, nil
}

func (b *Backend) publish(c kv.Change) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for sub := range b.subs {
		if sub.origin == c.Origin {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}
