package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
	"autobesa/pkg/money"
)

// FiltersKey is the storage key of the last-used criteria.
const FiltersKey = "autobesa_filters_v1"

// UnmarshalJSON also accepts the form-field shape older pages stored, where
// every value is a string and the bounds are named price (whole euros) and
// year.
func (c *Criteria) UnmarshalJSON(b []byte) error {
	var f struct {
		Search        string          `json:"search"`
		Brand         string          `json:"brand"`
		MaxPriceCents *int64          `json:"maxPriceCents"`
		MinYear       json.RawMessage `json:"minYear"`
		Price         json.RawMessage `json:"price"`
		Year          json.RawMessage `json:"year"`
		Transmission  string          `json:"transmission"`
		Fuel          string          `json:"fuel"`
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	*c = Criteria{Search: f.Search, Brand: f.Brand, Transmission: f.Transmission, Fuel: f.Fuel}
	switch {
	case f.MaxPriceCents != nil:
		c.MaxPrice = money.Cents(*f.MaxPriceCents)
	case len(f.Price) > 0:
		euros, err := looseInt(f.Price)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		c.MaxPrice = money.Euros(int64(euros))
	}

	year := f.MinYear
	if len(year) == 0 {
		year = f.Year
	}
	if len(year) > 0 {
		y, err := looseInt(year)
		if err != nil {
			return fmt.Errorf("year: %w", err)
		}
		c.MinYear = y
	}
	return nil
}

// looseInt decodes a JSON number or a numeric string; "" and null are zero.
func looseInt(raw json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(t), nil
	case string:
		if t == "" {
			return 0, nil
		}
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

// FilterStore persists the last-used criteria.
type FilterStore struct {
	store kv.Store
	log   *logger.Logger
}

// NewFilterStore returns a FilterStore over store.
func NewFilterStore(store kv.Store, log *logger.Logger) *FilterStore {
	return &FilterStore{store: store, log: log}
}

// Load returns the saved criteria. Nothing saved, or malformed data, reads
// as empty criteria.
func (f *FilterStore) Load(ctx context.Context) (Criteria, error) {
	var c Criteria
	err := kv.GetJSON(ctx, f.store, FiltersKey, &c)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, kv.ErrNotFound):
		return Criteria{}, nil
	case errors.Is(err, kv.ErrMalformed):
		f.log.Warn(ctx, "discarding malformed filters", "error", err)
		return Criteria{}, nil
	default:
		return Criteria{}, err
	}
}

// Save stores c.
func (f *FilterStore) Save(ctx context.Context, c Criteria) error {
	if err := kv.SetJSON(ctx, f.store, FiltersKey, c); err != nil {
		return fmt.Errorf("saving filters: %w", err)
	}
	return nil
}

// Reset removes the saved criteria.
func (f *FilterStore) Reset(ctx context.Context) error {
	if err := f.store.Delete(ctx, FiltersKey); err != nil {
		return fmt.Errorf("resetting filters: %w", err)
	}
	return nil
}
