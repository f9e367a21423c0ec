// Package postgres implements the key-value store on PostgreSQL. Changes are
// delivered with LISTEN/NOTIFY; because NOTIFY payloads are size-limited the
// notification carries only the key, so watchers re-read the value.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

// DefaultChannel is the NOTIFY channel for changes.
const DefaultChannel = "autobesa_kv_changes"

// Schema creates the backing table.
const Schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store persists values in the kv_entries table.
type Store struct {
	db      *sql.DB
	dsn     string
	channel string
	origin  string
	log     *logger.Logger
}

// New returns a Store over db. dsn is used to open the dedicated LISTEN
// connection for Watch.
func New(db *sql.DB, dsn string, log *logger.Logger) *Store {
	return &Store{db: db, dsn: dsn, channel: DefaultChannel, origin: uuid.NewString(), log: log}
}

// Origin identifies this context in published changes.
func (s *Store) Origin() string { return s.origin }

// Migrate creates the table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key=$1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.execNotify(ctx, kv.Change{Key: key, Origin: s.origin},
		"INSERT INTO kv_entries (key,value,updated_at) VALUES ($1,$2,now()) ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()",
		key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.execNotify(ctx, kv.Change{Key: key, Deleted: true, Origin: s.origin},
		"DELETE FROM kv_entries WHERE key=$1", key)
}

// execNotify runs the statement and the NOTIFY in one transaction so the
// notification is only delivered once the write is committed.
func (s *Store) execNotify(ctx context.Context, c kv.Change, query string, args ...any) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("write %s: %w; rollback err: %v", c.Key, err, rbErr)
		}
		return fmt.Errorf("write %s: %w", c.Key, err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", s.channel, string(payload)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("notify %s: %w; rollback err: %v", c.Key, err, rbErr)
		}
		return fmt.Errorf("notify %s: %w", c.Key, err)
	}
	return tx.Commit()
}

// Watch opens a LISTEN connection and delivers changes made by other
// contexts until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan kv.Change, error) {
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.log.Warn(ctx, "kv listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(s.channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", s.channel, err)
	}

	out := make(chan kv.Change)
	go func() {
		defer close(out)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				// nil after a reconnect; changes may have been missed.
				if n == nil {
					continue
				}
				c, ok := s.decode(n.Extra)
				if !ok {
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

func (s *Store) decode(payload string) (kv.Change, bool) {
	var c kv.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return kv.Change{}, false
	}
	if c.Origin == s.origin {
		return kv.Change{}, false
	}
	return c, true
}
