package ratelimit

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore shares counters between instances through Redis. Keys live
// under prefix and expire with their window.
type RedisStore struct {
	client  goredis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a store on client. A zero timeout leaves calls
// bounded by the caller's context only.
func NewRedisStore(client goredis.UniversalClient, prefix string, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, timeout: timeout}
}

func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key = s.prefix + key
	var (
		incrCmd *goredis.IntCmd
		ttlCmd  *goredis.DurationCmd
	)
	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incrCmd = pipe.IncrBy(ctx, key, int64(incr))
		ttlCmd = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		// First hit of the window: the key has no expiry yet.
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return incrCmd.Val(), ttl, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
