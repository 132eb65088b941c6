package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session hashes in Redis. Abandoned sessions are
// evicted by the TTL set on every write; the state machines themselves
// never sweep expired sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    30 * time.Minute,
	}
}

// NewRedisStoreFromURL connects to Redis using a redis:// URL and pings it
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}

	return NewRedisStore(client), nil
}

// Put writes all session fields as a Redis hash and refreshes the TTL
func (r *RedisStore) Put(key string, fields map[string]string) error {
	ctx := context.Background()

	// HSet wants a flat list of field/value pairs
	pairs := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, k, v)
	}

	if err := r.client.HSet(ctx, key, pairs...).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}

	return r.client.Expire(ctx, key, r.ttl).Err()
}

// Get loads all session fields. A nil map means the session was not found.
func (r *RedisStore) Get(key string) (map[string]string, error) {
	ctx := context.Background()

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}

	// HGetAll returns an empty map for missing keys
	if len(fields) == 0 {
		return nil, nil
	}

	return fields, nil
}

// Delete removes a session
func (r *RedisStore) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}
