package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/users"
	pkgAuth "github.com/cartelabolao/cartela-admin/pkg/auth"
	"github.com/cartelabolao/cartela-admin/pkg/auth/session"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/security"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "cartela",
	ExpirationMinutes: 30,
}

type stubSessionManager struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "refresh-" + accessID
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[oldAccessID]
	delete(s.sessions, oldAccessID)
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	next := session.NewAccessID()
	s.sessions[next] = "refresh-" + next
	return next, s.sessions[next], nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accessID)
	return nil
}

func (s *stubSessionManager) has(accessID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[accessID]
	return ok
}

func buildTestService(t *testing.T) (Service, *stubSessionManager, *gorm.DB) {
	t.Helper()
	client := dbtest.New(t)
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(client.DB()),
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return svc, sessions, client.DB()
}

func TestLoginMintsRoleClaimAndSession(t *testing.T) {
	svc, sessions, db := buildTestService(t)
	user := dbtest.SeedUser(t, db, "admin@example.com", "admin-secret", enums.UserRoleAdmin)

	pair, err := svc.Login(context.Background(), LoginRequest{Email: " ADMIN@example.com ", Password: "admin-secret"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.EqualValues(t, testJWT.ExpirationMinutes*60, pair.ExpiresIn)
	require.Equal(t, user.ID, pair.User.ID)
	require.NotNil(t, pair.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, claims.Role)
	require.Equal(t, user.ID, claims.UserID)
	require.True(t, sessions.has(claims.ID))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, db := buildTestService(t)
	user := dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Email: "op@example.com", Password: "wrong"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "op-secret"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error)
	_, err = svc.Login(ctx, LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSessionAndPicksUpRoleChange(t *testing.T) {
	svc, sessions, db := buildTestService(t)
	user := dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.NoError(t, err)
	oldClaims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", enums.UserRoleAdmin).Error)
	refreshed, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	newClaims, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, newClaims.Role)
	require.NotEqual(t, oldClaims.ID, newClaims.ID)
	require.False(t, sessions.has(oldClaims.ID))
	require.True(t, sessions.has(newClaims.ID))

	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "a consumed refresh token cannot be replayed")
}

func TestRefreshWithWrongTokenEndsSession(t *testing.T) {
	svc, sessions, db := buildTestService(t)
	dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken, "not-the-token")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.False(t, sessions.has(claims.ID))

	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	svc, sessions, db := buildTestService(t)
	user := dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	accessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	require.NoError(t, err)
	refresh, err := sessions.Generate(ctx, accessID)
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, expired, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, sessions, db := buildTestService(t)
	dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.AccessToken))
	require.False(t, sessions.has(claims.ID))

	require.True(t, pkgerrors.IsCode(svc.Logout(ctx, "garbage"), pkgerrors.CodeUnauthorized))
	require.True(t, pkgerrors.IsCode(svc.Logout(ctx, ""), pkgerrors.CodeUnauthorized))
}

func TestMeRequiresActiveUser(t *testing.T) {
	svc, _, db := buildTestService(t)
	user := dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	ctx := context.Background()

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "op@example.com", me.Email)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error)
	_, err = svc.Me(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	client := dbtest.New(t)
	db := client.DB()
	current := config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(db),
		SessionManager: newStubSessionManager(),
		JWTConfig:      testJWT,
		Password:       &current,
	})
	require.NoError(t, err)

	user := dbtest.SeedUser(t, db, "op@example.com", "op-secret", enums.UserRoleOperator)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotEqual(t, user.PasswordHash, stored.PasswordHash)
	require.False(t, security.NeedsRehash(stored.PasswordHash, current))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "op@example.com", Password: "op-secret"})
	require.NoError(t, err)
}
