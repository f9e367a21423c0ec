// Package kv defines the shared key-value store the cart, favorites, order
// history and catalog filters are persisted in.
//
// A Store handle represents one execution context (a browser tab, a server
// replica). Writes through a handle are visible to the very next read through
// any handle on the same backend. Changes are announced to every other
// context through Watch; the writing context never receives its own change
// and has to refresh its consumers itself, which is what Notifier is for.
// Concurrent writers resolve last-write-wins.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")
	// ErrMalformed is returned by GetJSON when the stored value does not decode.
	ErrMalformed = errors.New("kv: malformed value")
	// ErrWatchUnsupported is returned when the underlying store cannot watch.
	ErrWatchUnsupported = errors.New("kv: watch not supported")
)

// Change is a storage-change notification.
type Change struct {
	Key string `json:"key"`
	// NewValue is empty when Deleted is set. Backends with payload limits
	// may leave it empty; consumers should re-read the key.
	NewValue string `json:"newValue,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	// Origin identifies the context that made the change.
	Origin string `json:"origin"`
}

// Store reads and writes UTF-8 text values.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Watcher delivers changes made by other contexts. The channel is closed
// once ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// Notifier is told about writes made by the caller's own context.
type Notifier interface {
	Notify(ctx context.Context, key string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, key string)

func (f NotifierFunc) Notify(ctx context.Context, key string) { f(ctx, key) }

// NopNotifier ignores notifications.
var NopNotifier Notifier = NotifierFunc(func(context.Context, string) {})

// GetJSON decodes the value under key into v. A missing key yields
// ErrNotFound, an undecodable value an error wrapping ErrMalformed.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
