package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockCache struct {
	lookup map[string]string
	err    error
	closed bool
}

func newMockCache() *mockCache {
	return &mockCache{lookup: make(map[string]string)}
}

func (m *mockCache) Get(_ context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.lookup[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.lookup[key] = value
	return nil
}

func (m *mockCache) Ping(context.Context) error { return m.err }

func (m *mockCache) Close() error {
	m.closed = true
	return nil
}

func TestNewStatusStore_Validation(t *testing.T) {
	_, err := NewStatusStore(Options{Key: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	s, err := NewStatusStore(Options{Addr: "localhost:6379", Key: "k"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestStatusStore_MissingKeyIsFalse(t *testing.T) {
	s := NewStatusStoreWithCache(newMockCache(), "flag")

	flag, err := s.GetFlag(context.Background())
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestStatusStore_SetGet(t *testing.T) {
	cache := newMockCache()
	s := NewStatusStoreWithCache(cache, "flag")
	ctx := context.Background()

	require.NoError(t, s.SetFlag(ctx, true))
	assert.Equal(t, "1", cache.lookup["flag"])
	flag, err := s.GetFlag(ctx)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, s.SetFlag(ctx, false))
	flag, err = s.GetFlag(ctx)
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestStatusStore_Errors(t *testing.T) {
	cache := newMockCache()
	cache.err = errors.New("connection refused")
	s := NewStatusStoreWithCache(cache, "flag")

	_, err := s.GetFlag(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, s.SetFlag(context.Background(), true))
	assert.Error(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.True(t, cache.closed)
}
