package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "radar:"

// RedisStore keeps entries and counters in Redis with native key expiry, so
// Sweep is a no-op.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "cache: redis get")
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

func (s *RedisStore) IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	full := redisKeyPrefix + "counter:" + key
	n, err := s.rdb.Incr(ctx, full).Result()
	if err != nil {
		return 0, eris.Wrap(err, "cache: redis incr counter")
	}
	// Stamp the expiry only on first increment so the window doesn't slide.
	if n == 1 {
		if err := s.rdb.Expire(ctx, full, ttl).Err(); err != nil {
			return 0, eris.Wrap(err, "cache: redis expire counter")
		}
	}
	return n, nil
}

func (s *RedisStore) GetCounter(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, redisKeyPrefix+"counter:"+key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, eris.Wrap(err, "cache: redis get counter")
	}
	return n, nil
}

func (s *RedisStore) Sweep(context.Context) (int64, error) {
	return 0, nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, redisKeyPrefix+"*", 500).Result()
		if err != nil {
			return Stats{}, eris.Wrap(err, "cache: redis stats scan")
		}
		for _, k := range keys {
			if len(k) > len(redisKeyPrefix)+8 && k[len(redisKeyPrefix):len(redisKeyPrefix)+8] == "counter:" {
				st.Counters++
			} else {
				st.Entries++
			}
		}
		cursor = next
		if cursor == 0 {
			return st, nil
		}
	}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
