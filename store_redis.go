package sheetsign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key this package writes to Redis.
const DefaultRedisPrefix = "sheetsign:"

// redisPingTimeout bounds the connection check in constructors.
const redisPingTimeout = 5 * time.Second

// RedisOptions holds Redis connection settings shared by RedisStore and
// RedisDataset.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // DefaultRedisPrefix when empty
}

func (o RedisOptions) prefix() string {
	if o.Prefix == "" {
		return DefaultRedisPrefix
	}
	return o.Prefix
}

// dialRedis connects and pings.
func dialRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore keeps blobs as Redis strings under "<prefix>kv:<key>". The
// content type lives in a sibling "<prefix>kv:<key>:content-type" key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to Redis and returns a store.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client, err := dialRedis(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &RedisStore{client: client, prefix: opts.prefix()}, nil
}

// NewRedisStoreFromClient wraps an existing client. Close closes it.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) dataKey(key string) string {
	return s.prefix + "kv:" + key
}

func (s *RedisStore) typeKey(key string) string {
	return s.dataKey(key) + ":content-type"
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get %s: %v", ErrStore, key, err)
	}
	if len(val) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBlobNotFound, key)
	}
	return val, nil
}

// Put implements Store. Blob and content type are written in one
// transaction.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.dataKey(key), data, 0)
		pipe.Set(ctx, s.typeKey(key), contentType, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrStore, key, err)
	}
	return nil
}

// ContentType returns the content type stored with key.
func (s *RedisStore) ContentType(ctx context.Context, key string) (string, error) {
	ct, err := s.client.Get(ctx, s.typeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis get %s: %v", ErrStore, key, err)
	}
	return ct, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrStore, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
