package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a key-value store scoped to a key prefix.
// Every call carries its own timeout, so a slow server surfaces as an
// error instead of blocking the caller.
type Storage struct {
	db            redis.UniversalClient
	prefix        string
	timeout       time.Duration
	scanBatchSize int64
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithPrefix scopes every key under prefix. Reset and Count only touch
// keys under it.
func WithPrefix(prefix string) StorageOption {
	return func(s *Storage) { s.prefix = prefix }
}

// WithTimeout bounds each call. Non-positive values are ignored.
func WithTimeout(d time.Duration) StorageOption {
	return func(s *Storage) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScanBatchSize sets the SCAN COUNT hint. Non-positive values are ignored.
func WithScanBatchSize(n int) StorageOption {
	return func(s *Storage) {
		if n > 0 {
			s.scanBatchSize = int64(n)
		}
	}
}

// NewStorage wraps a go-redis client. Defaults: no prefix, 250ms timeout,
// scan batch size 1000.
func NewStorage(redisClient redis.UniversalClient, opts ...StorageOption) *Storage {
	s := &Storage{
		db:            redisClient,
		timeout:       250 * time.Millisecond,
		scanBatchSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStorageWithConfig creates a Storage from the env configuration.
func NewStorageWithConfig(redisClient redis.UniversalClient, cfg Config) *Storage {
	return NewStorage(redisClient,
		WithPrefix(cfg.KeyPrefix),
		WithTimeout(cfg.OperationTimeout),
		WithScanBatchSize(cfg.ScanBatchSize),
	)
}

// Get returns the value under key. A missing key is (nil, false, nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores val under key. Zero exp means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Set(ctx, s.prefix+key, val, exp).Err()
}

// Delete removes key. Missing keys are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Del(ctx, s.prefix+key).Err()
}

// Reset deletes every key under the prefix. A Storage without a prefix
// returns ErrNoPrefix: the database may hold keys of other users.
func (s *Storage) Reset(ctx context.Context) error {
	if s.prefix == "" {
		return ErrNoPrefix
	}

	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += int(s.scanBatchSize) {
		end := min(start+int(s.scanBatchSize), len(keys))
		if err := s.del(ctx, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of keys under the prefix.
func (s *Storage) Count(ctx context.Context) (int, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Keys returns the keys under the prefix with the prefix removed.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = k[len(s.prefix):]
	}
	return keys, nil
}

// Ping checks the connection within the storage timeout.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Ping(ctx).Err()
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

// Prefix returns the key prefix.
func (s *Storage) Prefix() string {
	return s.prefix
}

// scan lists full keys under the prefix using SCAN to avoid blocking Redis.
func (s *Storage) scan(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if cursor = next; cursor == 0 {
			return keys, nil
		}
	}
}

func (s *Storage) del(ctx context.Context, keys []string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Del(ctx, keys...).Err()
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
