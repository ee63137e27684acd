package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for idempotency reservations.
const keyPrefix = "idem:"

// RedisStore is the production implementation. SET NX makes the reservation
// race-free across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pending, ttl).Result()
	if err != nil {
		return Reservation{}, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return Reservation{Outcome: Reserved}, nil
	}

	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		// Expired between SETNX and GET; treat as in flight, caller retries.
		return Reservation{Outcome: InFlight}, nil
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("resolve idempotency key: %w", err)
	}
	if val == pending {
		return Reservation{Outcome: InFlight}, nil
	}
	return Reservation{Outcome: Replayed, RecordID: val}, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, recordID string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, recordID, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
