package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached values between api replicas.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) error {
	return s.rdb.Set(ctx, s.prefix+key, val, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}
