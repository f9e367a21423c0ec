// Package redis implements the key-value store on Redis. Changes are
// published on a pub/sub channel so every process sharing the Redis instance
// observes writes made by the others.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"autobesa/pkg/kv"
)

// DefaultChannel carries change notifications.
const DefaultChannel = "autobesa:kv:changes"

// Store is one context's handle on a Redis-backed store.
type Store struct {
	client  goredis.UniversalClient
	channel string
	origin  string
}

// Option customizes a Store.
type Option func(*Store)

// WithChannel overrides the pub/sub channel.
func WithChannel(name string) Option {
	return func(s *Store) { s.channel = name }
}

// New returns a Store with a fresh origin.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, channel: DefaultChannel, origin: uuid.NewString()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Origin identifies this context in published changes.
func (s *Store) Origin() string { return s.origin }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Set writes the value and publishes the change in one transaction.
func (s *Store) Set(ctx context.Context, key, value string) error {
	payload, err := json.Marshal(kv.Change{Key: key, NewValue: value, Origin: s.origin})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, key, value, 0)
		p.Publish(ctx, s.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	payload, err := json.Marshal(kv.Change{Key: key, Deleted: true, Origin: s.origin})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.Publish(ctx, s.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Watch subscribes to the change channel. The subscription is confirmed
// before Watch returns, so changes published afterwards are not missed.
func (s *Store) Watch(ctx context.Context) (<-chan kv.Change, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", s.channel, err)
	}

	out := make(chan kv.Change)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c kv.Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					continue
				}
				if c.Origin == s.origin {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
