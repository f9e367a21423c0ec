package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobesa/pkg/kv"
	"autobesa/pkg/logger"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, "postgres://unused", logger.NewNop()), mock
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_entries WHERE key=$1")).
		WithArgs("autobesa_cart_v1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))
	v, err := s.Get(ctx, "autobesa_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_entries WHERE key=$1")).
		WithArgs("autobesa_favs_v1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = s.Get(ctx, "autobesa_favs_v1")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNotifiesInTransaction(t *testing.T) {
	ctx := context.Background()
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_entries")).
		WithArgs("autobesa_cart_v1", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs(DefaultChannel, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Set(ctx, "autobesa_cart_v1", "[]"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_entries WHERE key=$1")).
		WithArgs("autobesa_cart_v1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.Delete(ctx, "autobesa_cart_v1")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecodeSkipsOwnChanges(t *testing.T) {
	s, _ := newStore(t)

	_, ok := s.decode(`{"key":"autobesa_cart_v1","origin":"` + s.Origin() + `"}`)
	assert.False(t, ok)

	c, ok := s.decode(`{"key":"autobesa_cart_v1","deleted":true,"origin":"other"}`)
	assert.True(t, ok)
	assert.Equal(t, kv.Change{Key: "autobesa_cart_v1", Deleted: true, Origin: "other"}, c)

	_, ok = s.decode("not json")
	assert.False(t, ok)
}
