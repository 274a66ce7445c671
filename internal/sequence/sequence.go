// Package sequence allocates the per-prefix, per-year counters behind
// session and exam identifiers.
package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Counter is implemented by repositories with an atomic counter table.
type Counter interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// Store allocates numbers from the repository's counter.
type Store struct {
	c Counter
}

// NewStore returns a sequencer backed by c.
func NewStore(c Counter) *Store {
	return &Store{c: c}
}

// Next returns the next value for key.
func (s *Store) Next(ctx context.Context, key string) (int64, error) {
	return s.c.NextSequence(ctx, key)
}

// Redis allocates numbers with INCR, so several instances can share one counter.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a sequencer that keys counters as <prefix><key>.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "bandscore:seq:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Next returns the next value for key.
func (r *Redis) Next(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, r.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
