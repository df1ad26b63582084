package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_GetHit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT payload FROM radar_cache`).
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{"leads":[]}`)))

	s := NewPostgresStoreWithPool(mock)
	got, ok, err := s.Get(context.Background(), "abc")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"leads":[]}`), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT payload FROM radar_cache`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresStoreWithPool(mock)
	_, ok, err := s.Get(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO radar_cache`).
		WithArgs("abc", []byte("payload"), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresStoreWithPool(mock)
	require.NoError(t, s.Set(context.Background(), "abc", []byte("payload"), 6*time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrCounter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO radar_counters`).
		WithArgs("org:a:2026-08-31", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"n"}).AddRow(int64(3)))

	s := NewPostgresStoreWithPool(mock)
	n, err := s.IncrCounter(context.Background(), "org:a:2026-08-31", 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCounterMissIsZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT n FROM radar_counters`).
		WithArgs("org:a:2026-08-31").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresStoreWithPool(mock)
	n, err := s.GetCounter(context.Background(), "org:a:2026-08-31")

	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Sweep(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM radar_cache`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec(`DELETE FROM radar_counters`).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	s := NewPostgresStoreWithPool(mock)
	n, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
