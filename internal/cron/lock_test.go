package cron

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) DeleteIfEquals(_ context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] != expected {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestRedisLockIsExclusiveAcrossWorkers(t *testing.T) {
	store := &memoryStore{data: map[string]string{}}
	first, err := NewRedisLock(store, "lock:automation", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "lock:automation", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// a non-owner release must not free the lock
	require.NoError(t, second.Release(ctx))
	_, err = store.Get(ctx, "lock:automation")
	require.NoError(t, err)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockTagsHolderWithInstance(t *testing.T) {
	store := &memoryStore{data: map[string]string{}}
	lock, err := NewRedisLock(store, "cartela:cron-worker:lock:prod", 0, WithInstance("worker.1"))
	require.NoError(t, err)
	ctx := context.Background()

	holder, err := lock.Holder(ctx)
	require.NoError(t, err)
	require.Empty(t, holder)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	holder, err = lock.Holder(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(holder, "worker.1/"))
	require.Equal(t, defaultLockTTL, lock.ttl)
}

func TestRedisLockLeavesForeignLeaseAfterExpiry(t *testing.T) {
	store := &memoryStore{data: map[string]string{}}
	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// lease expired and another replica took it
	store.data["k"] = "worker.2/other"
	require.NoError(t, lock.Release(ctx))
	require.Equal(t, "worker.2/other", store.data["k"])
}
