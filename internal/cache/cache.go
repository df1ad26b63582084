// Package cache persists search responses and per-organization usage
// counters behind a pluggable Store. Four drivers are available: an
// in-process map (the default), Postgres, Redis, and SQLite.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-radar/internal/config"
)

// Store is the persistence contract shared by every driver.
//
// Get reports a miss (not an error) for absent or expired entries. Set
// overwrites unconditionally. IncrCounter atomically bumps a counter and
// returns the new value; counters expire with the given TTL so day-scoped
// quota keys clean themselves up.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, error)
	Sweep(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats summarizes a store for the cache CLI.
type Stats struct {
	Entries  int64 `json:"entries"`
	Counters int64 `json:"counters"`
}

// Key derives the cache key for a search. Coordinates are rounded so that
// requests a few meters apart share an entry: three decimals of latitude is
// roughly a city block.
func Key(lat, lng, radiusMeters float64, industry, trade string) string {
	raw := fmt.Sprintf("%.3f:%.3f:%.1f:%s:%s", lat, lng, radiusMeters, industry, trade)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CounterKey names the daily quota counter for an organization. Day
// boundaries are UTC.
func CounterKey(orgID string, day time.Time) string {
	return fmt.Sprintf("org:%s:%s", orgID, day.UTC().Format("2006-01-02"))
}

// Open builds the store named by the config driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(cfg.RedisAddr), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("cache: unknown store driver %q", cfg.Driver)
	}
}
