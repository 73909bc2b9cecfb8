package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolStore keeps quiz pool consumed sets in Redis sets, so a learner's
// progress through a level survives restarts.
type PoolStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// PoolStoreOption configures a PoolStore.
type PoolStoreOption func(*PoolStore)

// WithKeyPrefix namespaces every key, e.g. "hanyumate:".
func WithKeyPrefix(prefix string) PoolStoreOption {
	return func(s *PoolStore) {
		s.prefix = prefix
	}
}

// WithTTL expires idle pools. Zero keeps them forever.
func WithTTL(ttl time.Duration) PoolStoreOption {
	return func(s *PoolStore) {
		s.ttl = ttl
	}
}

// NewPoolStore creates a store on top of an existing cache connection.
func NewPoolStore(c *Cache, opts ...PoolStoreOption) *PoolStore {
	s := &PoolStore{client: c.Client, prefix: "hanyumate:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consumed returns the members of the pool's set. Non-numeric members are skipped.
func (s *PoolStore) Consumed(ctx context.Context, key string) ([]int, error) {
	members, err := s.client.SMembers(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading pool set: %w", err)
	}
	out := make([]int, 0, len(members))
	for _, m := range members {
		i, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

// Add inserts indices into the pool's set.
func (s *PoolStore) Add(ctx context.Context, key string, indices ...int) error {
	if len(indices) == 0 {
		return nil
	}
	members := make([]any, len(indices))
	for i, idx := range indices {
		members[i] = idx
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.prefix+key, members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.prefix+key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("adding to pool set: %w", err)
	}
	return nil
}

// Reset deletes the pool's set.
func (s *PoolStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("resetting pool set: %w", err)
	}
	return nil
}
