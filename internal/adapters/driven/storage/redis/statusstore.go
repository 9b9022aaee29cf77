// Package redis provides a StatusStore kept in a Redis key, for deployments
// where several processes share one index.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// Options configures the redis connection.
type Options struct {
	// Addr is the redis host:port.
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int

	// Key holds the flag.
	Key string
}

// Cache is the subset of redis commands the store uses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// StatusStore keeps the index-initialised flag as "1" or "0" under one key.
type StatusStore struct {
	cache Cache
	key   string
}

// NewStatusStore connects to redis.
func NewStatusStore(opts Options) (*StatusStore, error) {
	if opts.Addr == "" || opts.Key == "" {
		return nil, fmt.Errorf("%w: redis status needs an address and a key", domain.ErrInvalidConfig)
	}
	c := &client{rdb: redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})}
	return NewStatusStoreWithCache(c, opts.Key), nil
}

// NewStatusStoreWithCache builds a store on an existing cache.
func NewStatusStoreWithCache(cache Cache, key string) *StatusStore {
	return &StatusStore{cache: cache, key: key}
}

// GetFlag returns the stored flag, or false if the key is missing.
func (s *StatusStore) GetFlag(ctx context.Context) (bool, error) {
	v, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return v == "1", nil
}

// SetFlag stores the flag without expiry.
func (s *StatusStore) SetFlag(ctx context.Context, value bool) error {
	v := "0"
	if value {
		v = "1"
	}
	if err := s.cache.Set(ctx, s.key, v); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Ping tests connectivity.
func (s *StatusStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// Close closes the connection.
func (s *StatusStore) Close() error {
	return s.cache.Close()
}

// client adapts go-redis to Cache.
type client struct {
	rdb *redis.Client
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

func (c *client) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

func (c *client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *client) Close() error {
	return c.rdb.Close()
}
