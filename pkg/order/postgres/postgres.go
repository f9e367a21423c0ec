package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"autobesa/pkg/order"
)

// Schema creates the orders table.
const Schema = `CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	customer JSONB NOT NULL,
	items JSONB NOT NULL,
	totals JSONB NOT NULL
)`

const uniqueViolation = "23505"

// Repository persists orders in PostgreSQL, scoped to one profile.
type Repository struct {
	db      *sql.DB
	profile string
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the orders table when it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// ForProfile returns a repository limited to the profile's orders.
func (r *Repository) ForProfile(profileID string) *Repository {
	return &Repository{db: r.db, profile: profileID}
}

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	totals, err := json.Marshal(o.Totals)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO orders (id,profile_id,created_at,customer,items,totals) VALUES ($1,$2,$3,$4,$5,$6)",
		o.ID, r.profile, o.CreatedAt, customer, items, totals)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return order.ErrExists
	}
	return err
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id,created_at,customer,items,totals FROM orders WHERE id=$1 AND profile_id=$2", id, r.profile)
	o, err := scan(row)
	if err == sql.ErrNoRows {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// List fetches the profile's orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id,created_at,customer,items,totals FROM orders WHERE profile_id=$1 ORDER BY created_at, id", r.profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []order.Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (order.Order, error) {
	var (
		o                        order.Order
		customer, items, totals []byte
	)
	if err := s.Scan(&o.ID, &o.CreatedAt, &customer, &items, &totals); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return order.Order{}, fmt.Errorf("order %s customer: %w", o.ID, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	if err := json.Unmarshal(totals, &o.Totals); err != nil {
		return order.Order{}, fmt.Errorf("order %s totals: %w", o.ID, err)
	}
	return o, nil
}
