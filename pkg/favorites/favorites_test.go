package favorites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobesa/pkg/kv"
	"autobesa/pkg/kv/memory"
	"autobesa/pkg/logger"
)

func TestToggleIsInvolution(t *testing.T) {
	ctx := context.Background()
	var notified []string
	r := New(memory.NewBackend().Open(), kv.NotifierFunc(func(_ context.Context, key string) {
		notified = append(notified, key)
	}), logger.NewNop())

	added, err := r.Toggle(ctx, "car-3")
	require.NoError(t, err)
	assert.True(t, added)

	fav, err := r.IsFavorited(ctx, "car-3")
	require.NoError(t, err)
	assert.True(t, fav)

	added, err = r.Toggle(ctx, "car-3")
	require.NoError(t, err)
	assert.False(t, added)

	fav, err = r.IsFavorited(ctx, "car-3")
	require.NoError(t, err)
	assert.False(t, fav)

	assert.Equal(t, []string{Key, Key}, notified)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := New(memory.NewBackend().Open(), nil, logger.NewNop())

	for _, id := range []string{"car-5", "car-1", "car-9", "car-1"} {
		_, err := r.Toggle(ctx, id)
		require.NoError(t, err)
	}

	ids, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"car-5", "car-9"}, ids)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoredDuplicatesAndMalformedData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBackend().Open()
	r := New(store, nil, logger.NewNop())

	require.NoError(t, store.Set(ctx, Key, `["car-1","car-2","car-1"]`))
	ids, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"car-1", "car-2"}, ids)

	added, err := r.Toggle(ctx, "car-1")
	require.NoError(t, err)
	assert.False(t, added)
	ids, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"car-2"}, ids)

	require.NoError(t, store.Set(ctx, Key, `{"car-1":true}`))
	ids, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
