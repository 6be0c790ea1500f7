package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cartelabolao/cartela-admin/api/middleware"
	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/auth"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

// AuthLogin exchanges email and password for a token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth"))
			return
		}
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pair, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth"))
			return
		}
		userID := middleware.UserIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}
		profile, err := svc.Me(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AuthLogout ends the session of the bearer token. Expired tokens are
// accepted so a client can always sign out.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth"))
			return
		}
		token, err := middleware.BearerToken(r)
		if err == nil {
			err = svc.Logout(ctx, token)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AuthRefresh rotates the session: the bearer access token names it and the
// body proves possession of its refresh token.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth"))
			return
		}
		token, err := middleware.BearerToken(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pair, err := svc.Refresh(ctx, token, body.RefreshToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}
