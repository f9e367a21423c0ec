// Package session binds browser session ids to storefront profiles.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Store creates and resolves sessions.
type Store interface {
	// Create starts a session for profile and returns its id.
	Create(ctx context.Context, profile string) (string, error)
	// Lookup returns the profile bound to sid.
	Lookup(ctx context.Context, sid string) (string, error)
}

const keyPrefix = "session:"

// RedisStore keeps sessions in redis with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore returns a session store on client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, profile string) (string, error) {
	sid := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+sid, profile, s.ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

func (s *RedisStore) Lookup(ctx context.Context, sid string) (string, error) {
	profile, err := s.client.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) || (err == nil && profile == "") {
		return "", ErrNoSession
	}
	return profile, err
}

// sweepInterval bounds how often Create scans for expired sessions.
const sweepInterval = time.Minute

// MemoryStore keeps sessions in process. Expired sessions are swept as new
// ones are created.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]entry
	lastSweep time.Time
}

type entry struct {
	profile string
	expires time.Time
}

// NewMemoryStore returns an in-process session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]entry)}
}

func (s *MemoryStore) Create(_ context.Context, profile string) (string, error) {
	sid := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}
	s.sessions[sid] = entry{profile: profile, expires: now.Add(s.ttl)}
	return sid, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for sid, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, sid)
		}
	}
	s.lastSweep = now
}

// Len reports how many sessions are held, expired ones included until the
// next sweep.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) Lookup(_ context.Context, sid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sid]
	if !ok {
		return "", ErrNoSession
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, sid)
		return "", ErrNoSession
	}
	return e.profile, nil
}
