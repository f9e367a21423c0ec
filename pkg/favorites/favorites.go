// Package favorites implements the persisted favorites list: a set of card
// ids kept in insertion order.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

// Key is the storage key of the favorites list.
const Key = "autobesa_favs_v1"

// Repository is the single access path to the stored favorites.
type Repository struct {
	store    kv.Store
	notifier kv.Notifier
	log      *logger.Logger
}

// New returns a Repository over store. A nil notifier is allowed.
func New(store kv.Store, notifier kv.Notifier, log *logger.Logger) *Repository {
	if notifier == nil {
		notifier = kv.NopNotifier
	}
	return &Repository{store: store, notifier: notifier, log: log}
}

// List returns the favorited ids in the order they were added. Duplicate
// ids in stored data are collapsed to their first occurrence.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := kv.GetJSON(ctx, r.store, Key, &ids)
	switch {
	case err == nil:
	case errors.Is(err, kv.ErrNotFound):
		return []string{}, nil
	case errors.Is(err, kv.ErrMalformed):
		r.log.Warn(ctx, "discarding malformed favorites", "error", err)
		return []string{}, nil
	default:
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Count is the number of favorited ids.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// IsFavorited reports whether id is in the list.
func (r *Repository) IsFavorited(ctx context.Context, id string) (bool, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Toggle adds id when absent and removes it when present. It reports
// whether id is favorited afterwards.
func (r *Repository) Toggle(ctx context.Context, id string) (bool, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return false, err
	}

	added := false
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
		added = true
	}

	if err := kv.SetJSON(ctx, r.store, Key, ids); err != nil {
		return false, fmt.Errorf("saving favorites: %w", err)
	}
	r.notifier.Notify(ctx, Key)
	r.log.Debug(ctx, "favorite toggled", "id", id, "added", added)
	return added, nil
}
