package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Minute

// Lock gives one replica at a time the right to run a cron cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	DeleteIfEquals(ctx context.Context, key, expected string) (bool, error)
}

// RedisLock is a lease held under a single key. Its value reads
// "<instance>/<nonce>" so whoever inspects the key can see which replica
// holds it.
type RedisLock struct {
	store    leaseStore
	key      string
	ttl      time.Duration
	instance string
	held     string
}

type LockOption func(*RedisLock)

func WithInstance(id string) LockOption {
	return func(l *RedisLock) {
		if id != "" {
			l.instance = id
		}
	}
}

func NewRedisLock(store leaseStore, key string, ttl time.Duration, opts ...LockOption) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("cron lock: redis store required")
	case key == "":
		return nil, errors.New("cron lock: key required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	l := &RedisLock{store: store, key: key, ttl: ttl, instance: "local"}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Acquire takes the lease for ttl. A replica that dies mid-cycle loses it
// when the ttl runs out.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	value := l.instance + "/" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, value, l.ttl)
	if err != nil {
		return false, fmt.Errorf("cron lock %s: %w", l.key, err)
	}
	if ok {
		l.held = value
	}
	return ok, nil
}

// Holder reports the current lease value, "" when nobody holds it.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	value, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

// Release gives the lease back if this lock still holds it. A lease that
// expired and was taken by another replica stays with that replica.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.held == "" {
		return nil
	}
	value := l.held
	l.held = ""
	if _, err := l.store.DeleteIfEquals(ctx, l.key, value); err != nil {
		return fmt.Errorf("cron lock %s: release: %w", l.key, err)
	}
	return nil
}
