package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerialisesSameKey(t *testing.T) {
	k := newKeyLock()
	var active, peak atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "doc")
			if !assert.NoError(t, err) {
				return
			}
			n := active.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 0, k.size())
}

func TestKeyLock_DistinctKeysIndependent(t *testing.T) {
	k := newKeyLock()

	unlockA, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlockB, err := k.Lock(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, k.size())

	unlockA()
	unlockB()
	assert.Equal(t, 0, k.size())
}

func TestKeyLock_WaiterGivesUp(t *testing.T) {
	k := newKeyLock()
	unlock, err := k.Lock(context.Background(), "doc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "doc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, k.size())

	unlock()
	assert.Equal(t, 0, k.size())
}

func TestKeyLock_UnlockIsIdempotent(t *testing.T) {
	k := newKeyLock()
	unlock, err := k.Lock(context.Background(), "doc")
	require.NoError(t, err)

	unlock()
	unlock()

	again, err := k.Lock(context.Background(), "doc")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, k.size())
}

func TestKeyLock_CancelledBeforeLock(t *testing.T) {
	k := newKeyLock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := k.Lock(ctx, "doc")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, k.size())
}
