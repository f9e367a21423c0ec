// Package account guards named profiles with a password.
//
// A name is claimed by the first successful login that uses it; later logins
// must present the same password. Guest profiles are minted by the server and
// cannot be claimed.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

var (
	// ErrBadCredentials is returned when the password does not match.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrReserved is returned for names the server hands out itself.
	ErrReserved = errors.New("profile name is reserved")
)

const (
	keyPrefix = "account:"
	// GuestPrefix starts every server-minted profile name.
	GuestPrefix = "guest-"
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

type record struct {
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps password hashes in the shared store, outside every profile's
// namespace.
type Store struct {
	kv   kv.Store
	log  *logger.Logger
	cost int
	now  func() time.Time

	// serializes claims made through this process
	mu sync.Mutex
}

// New returns a Store over the shared, unscoped store.
func New(store kv.Store, log *logger.Logger) *Store {
	return &Store{kv: store, log: log, cost: bcrypt.DefaultCost, now: time.Now}
}

// Authenticate checks password for username, claiming the name when nobody
// has used it yet. claimed reports whether this call created the account.
func (s *Store) Authenticate(ctx context.Context, username, password string) (claimed bool, err error) {
	if strings.HasPrefix(username, GuestPrefix) {
		return false, ErrReserved
	}
	if password == "" || len(password) > maxPasswordLen {
		return false, ErrBadCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rec record
	err = kv.GetJSON(ctx, s.kv, keyPrefix+username, &rec)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(password)) != nil {
			s.log.Warn(ctx, "login rejected", "profile", username)
			return false, ErrBadCredentials
		}
		return false, nil
	case errors.Is(err, kv.ErrNotFound):
	default:
		return false, fmt.Errorf("reading account %s: %w", username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	if err := kv.SetJSON(ctx, s.kv, keyPrefix+username, record{Hash: string(hash), CreatedAt: s.now().UTC()}); err != nil {
		return false, err
	}
	s.log.Info(ctx, "profile claimed", "profile", username)
	return true, nil
}
