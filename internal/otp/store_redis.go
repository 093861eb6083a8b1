package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "neokyc:otp:"

// RedisStore keeps codes in Redis with server-side expiry. An expired code
// is indistinguishable from a missing one and yields ErrNotFound.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, subject, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKeyPrefix+subject, code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, subject string) (string, error) {
	code, err := s.client.GetDel(ctx, redisKeyPrefix+subject).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis getdel: %w", err)
	}
	return code, nil
}
