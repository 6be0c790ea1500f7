// Package session keeps refresh sessions in Redis. Each session is keyed by
// the jti of the access token it was issued with and stores only a SHA-256
// digest of the refresh token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenEntropy = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errNoAccessID          = errors.New("session: access id required")
)

// Store is the Redis surface sessions need. *redis.Client from pkg/redis
// satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to reject tokens
// whose session was revoked.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager sizes sessions by the refresh TTL, which has to outlive the
// access token or a client could never refresh.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store required")
	}
	ttl := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, errors.New("session: refresh ttl must be positive")
	case ttl <= access:
		return nil, fmt.Errorf("session: refresh ttl %s does not outlive access ttl %s", ttl, access)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errNoAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	key, err := m.key(accessID)
	if err != nil {
		return "", err
	}
	buf := make([]byte, tokenEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	if err := m.store.Set(ctx, key, digest(token), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate consumes the session for oldAccessID and opens a new one. The old
// entry is removed before comparing, so a refresh token works once and a
// wrong token also ends the session.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (newAccessID, newToken string, err error) {
	if strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}
	key, err := m.key(oldAccessID)
	if err != nil {
		return "", "", ErrInvalidRefreshToken
	}
	stored, err := m.store.GetDel(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID = NewAccessID()
	if newToken, err = m.Generate(ctx, newAccessID); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke ends the session; a missing one is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

// NewAccessID mints the jti shared by an access token and its session.
func NewAccessID() string {
	return uuid.NewString()
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
