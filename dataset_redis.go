package sheetsign

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDataset appends records as JSON to the "<prefix>results" list.
type RedisDataset struct {
	client redis.UniversalClient
	key    string
}

// NewRedisDataset connects to Redis and returns a dataset.
func NewRedisDataset(ctx context.Context, opts RedisOptions) (*RedisDataset, error) {
	client, err := dialRedis(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	return &RedisDataset{client: client, key: opts.prefix() + "results"}, nil
}

// Push implements Dataset.
func (d *RedisDataset) Push(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %v", ErrDataset, err)
	}
	if err := d.client.RPush(ctx, d.key, data).Err(); err != nil {
		return fmt.Errorf("%w: redis rpush: %v", ErrDataset, err)
	}
	return nil
}

// Close closes the Redis connection.
func (d *RedisDataset) Close() error {
	return d.client.Close()
}
