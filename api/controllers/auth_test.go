package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cartelabolao/cartela-admin/api/middleware"
	"github.com/cartelabolao/cartela-admin/internal/auth"
	"github.com/cartelabolao/cartela-admin/internal/users"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error)
	meFn      func(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	logoutFn  func(ctx context.Context, token string) error
	refreshFn func(ctx context.Context, token, refresh string) (*auth.TokenPair, error)
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
	return s.loginFn(ctx, req)
}

func (s stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.meFn(ctx, userID)
}

func (s stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s stubAuthService) Refresh(ctx context.Context, token, refresh string) (*auth.TokenPair, error) {
	return s.refreshFn(ctx, token, refresh)
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
			require.Equal(t, "admin@cartela.local", req.Email)
			return &auth.TokenPair{
				AccessToken:  "access",
				RefreshToken: "refresh",
				User:         &users.UserDTO{Email: req.Email, Role: enums.UserRoleAdmin},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"admin@cartela.local","password":"cartela-admin"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data auth.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, "access", envelope.Data.AccessToken)
	require.Equal(t, enums.UserRoleAdmin, envelope.Data.User.Role)
}

func TestAuthLoginValidation(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"not-an-email","password":""}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"wrong-pass"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMeUsesContextUser(t *testing.T) {
	userID := uuid.New()
	svc := stubAuthService{
		meFn: func(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
			require.Equal(t, userID, id)
			return &users.UserDTO{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), middleware.Actor{UserID: userID, Role: enums.UserRoleOperator}))
	resp := httptest.NewRecorder()
	AuthMe(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthMeWithoutUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	resp := httptest.NewRecorder()
	AuthMe(stubAuthService{}, testLogger())(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthLogoutPassesBearerToken(t *testing.T) {
	var got string
	svc := stubAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			got = token
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	resp := httptest.NewRecorder()
	AuthLogout(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "abc.def", got)
}

func TestAuthLogoutMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	AuthLogout(stubAuthService{}, testLogger())(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRefreshRequiresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer abc.def")
	resp := httptest.NewRecorder()
	AuthRefresh(stubAuthService{}, testLogger())(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{"refresh_token":"r1"}`))
	resp := httptest.NewRecorder()
	AuthRefresh(stubAuthService{}, testLogger())(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRefreshSuccess(t *testing.T) {
	svc := stubAuthService{
		refreshFn: func(ctx context.Context, token, refresh string) (*auth.TokenPair, error) {
			require.Equal(t, "abc.def", token)
			require.Equal(t, "r1", refresh)
			return &auth.TokenPair{AccessToken: "new", RefreshToken: "r2"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{"refresh_token":"r1"}`))
	req.Header.Set("Authorization", "Bearer abc.def")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"refresh_token":"r2"`)
}
