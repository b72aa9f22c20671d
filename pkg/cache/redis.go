package cache

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the sync idempotency guard, or nil when
// REDIS_ADDR is unset or unreachable. Callers must treat nil as "guard
// disabled"; the database dedup index still protects correctness.
func ConnectRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: redis unreachable at %s, idempotency guard disabled: %v", addr, err)
		return nil
	}

	log.Println("Redis connection established")
	return client
}
