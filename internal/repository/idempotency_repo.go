package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore guards the sync acceptance path against replaying the
// same logical event twice within the retention window. The database dedup
// index remains the backstop when the store is unavailable.
type IdempotencyStore interface {
	// Acquire returns true when this is the first sighting of the key.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release frees the key after a failed apply so a retry can pass.
	Release(ctx context.Context, key string) error
}

type redisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotency(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &redisIdempotency{client: client, ttl: ttl}
}

func (s *redisIdempotency) Acquire(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, key, "1", s.ttl).Result()
}

func (s *redisIdempotency) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
