package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	rv "github.com/rowpipe/validator"
)

// redisKeyPrefix namespaces validation summaries in a shared Redis.
const redisKeyPrefix = "rowpipe:summary:"

// RedisStore is an rv.Store over Redis, for pipelines where several
// workers or machines validate the same inputs. Entries are written with
// an optional TTL; the key is the content hash, so a changed input is a
// new key and stale entries age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 = no expiry
}

var _ rv.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// ConnectRedis dials the Redis at url (redis://...), verifies the
// connection with a ping, and returns a store over it.
func ConnectRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get implements rv.Store.
func (s *RedisStore) Get(ctx context.Context, contentHash string) (rv.Summary, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+contentHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return rv.Summary{}, false, nil
	}
	if err != nil {
		return rv.Summary{}, false, fmt.Errorf("redis get: %w", err)
	}

	var sum rv.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return rv.Summary{}, false, nil
	}
	return sum, true, nil
}

// Put implements rv.Store.
func (s *RedisStore) Put(ctx context.Context, contentHash string, summary rv.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+contentHash, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
