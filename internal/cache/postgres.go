package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore persists cache entries and counters in two small tables.
type PostgresStore struct {
	pool Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS radar_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_radar_cache_expires_at ON radar_cache(expires_at);

CREATE TABLE IF NOT EXISTS radar_counters (
	counter_key TEXT PRIMARY KEY,
	n           BIGINT NOT NULL DEFAULT 0,
	expires_at  TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects, pings, and runs the migration.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse postgres config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "cache: ping postgres")
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool wraps an existing pool without migrating. Tests
// use it with pgxmock.
func NewPostgresStoreWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: migrate postgres")
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM radar_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "cache: postgres get")
	}
	return payload, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().UTC().Add(ttl)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO radar_cache (cache_key, payload, cached_at, expires_at)
		 VALUES ($1, $2, now(), $3)
		 ON CONFLICT (cache_key) DO UPDATE SET payload = $2, cached_at = now(), expires_at = $3`,
		key, value, expiresAt,
	)
	return eris.Wrap(err, "cache: postgres set")
}

func (s *PostgresStore) IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	expiresAt := time.Now().UTC().Add(ttl)
	var n int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO radar_counters (counter_key, n, expires_at)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (counter_key) DO UPDATE SET
		   n = CASE WHEN radar_counters.expires_at <= now() THEN 1 ELSE radar_counters.n + 1 END,
		   expires_at = CASE WHEN radar_counters.expires_at <= now() THEN $2 ELSE radar_counters.expires_at END
		 RETURNING n`,
		key, expiresAt,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres incr counter")
	}
	return n, nil
}

func (s *PostgresStore) GetCounter(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT n FROM radar_counters WHERE counter_key = $1 AND expires_at > now()`,
		key,
	).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, eris.Wrap(err, "cache: postgres get counter")
	}
	return n, nil
}

func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM radar_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres sweep")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM radar_counters WHERE expires_at <= now()`); err != nil {
		return 0, eris.Wrap(err, "cache: postgres sweep counters")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM radar_cache WHERE expires_at > now()),
		   (SELECT COUNT(*) FROM radar_counters WHERE expires_at > now())`,
	).Scan(&st.Entries, &st.Counters)
	if err != nil {
		return Stats{}, eris.Wrap(err, "cache: postgres stats")
	}
	return st, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
