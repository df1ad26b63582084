package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the zero-infrastructure persistent driver, suited to the
// one-shot CLI commands.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS radar_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_radar_cache_expires_at ON radar_cache(expires_at);

CREATE TABLE IF NOT EXISTS radar_counters (
	counter_key TEXT PRIMARY KEY,
	n           INTEGER NOT NULL DEFAULT 0,
	expires_at  INTEGER NOT NULL
);
`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "cache: migrate sqlite")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM radar_cache WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "cache: sqlite get")
	}
	return payload, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO radar_cache (cache_key, payload, cached_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload,
		   cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, value, now.Unix(), now.Add(ttl).Unix(),
	)
	return eris.Wrap(err, "cache: sqlite set")
}

func (s *SQLiteStore) IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := time.Now()
	var n int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO radar_counters (counter_key, n, expires_at)
		 VALUES (?1, 1, ?2)
		 ON CONFLICT (counter_key) DO UPDATE SET
		   n = CASE WHEN radar_counters.expires_at <= ?3 THEN 1 ELSE radar_counters.n + 1 END,
		   expires_at = CASE WHEN radar_counters.expires_at <= ?3 THEN ?2 ELSE radar_counters.expires_at END
		 RETURNING n`,
		key, now.Add(ttl).Unix(), now.Unix(),
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite incr counter")
	}
	return n, nil
}

func (s *SQLiteStore) GetCounter(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT n FROM radar_counters WHERE counter_key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, eris.Wrap(err, "cache: sqlite get counter")
	}
	return n, nil
}

func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM radar_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite sweep")
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM radar_counters WHERE expires_at <= ?`, time.Now().Unix()); err != nil {
		return 0, eris.Wrap(err, "cache: sqlite sweep counters")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite sweep rows affected")
	}
	return n, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	now := time.Now().Unix()
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM radar_cache WHERE expires_at > ?1),
		   (SELECT COUNT(*) FROM radar_counters WHERE expires_at > ?1)`,
		now,
	).Scan(&st.Entries, &st.Counters)
	if err != nil {
		return Stats{}, eris.Wrap(err, "cache: sqlite stats")
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
