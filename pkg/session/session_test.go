package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, time.Hour)
	sid, err := s.Create(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+sid))

	profile, err := s.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "ana", profile)

	_, err = s.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)

	mr.FastForward(2 * time.Hour)
	_, err = s.Lookup(ctx, sid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	sid, err := s.Create(ctx, "guest-1")
	require.NoError(t, err)

	profile, err := s.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", profile)

	now = now.Add(time.Hour)
	_, err = s.Lookup(ctx, sid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStoreSweepsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	for range 100 {
		_, err := s.Create(ctx, "guest")
		require.NoError(t, err)
	}
	assert.Equal(t, 100, s.Len())

	now = now.Add(time.Hour + time.Minute)
	live, err := s.Create(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	profile, err := s.Lookup(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, "ana", profile)
}
