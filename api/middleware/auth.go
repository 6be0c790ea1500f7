package middleware

import (
	"net/http"
	"strings"

	"github.com/cartelabolao/cartela-admin/api/responses"
	pkgAuth "github.com/cartelabolao/cartela-admin/pkg/auth"
	"github.com/cartelabolao/cartela-admin/pkg/auth/session"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

const queryTokenParam = "access_token"

// BearerToken extracts the raw token from the Authorization header. The
// "Bearer" scheme is optional.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= len("bearer") && strings.EqualFold(raw[:len("bearer")], "bearer") {
		raw = strings.TrimSpace(raw[len("bearer"):])
	}
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return raw, nil
}

// Auth validates the access token and its refresh session, then seeds the
// context with user id and role. Browsers cannot set headers on websocket
// upgrades, so those alone may pass the token as ?access_token=.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := BearerToken(r)
			if err != nil && isWebsocketUpgrade(r) {
				if q := strings.TrimSpace(r.URL.Query().Get(queryTokenParam)); q != "" {
					token, err = q, nil
				}
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if pkgAuth.IsExpired(err) {
					msg = "token expired"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			if verifier != nil {
				active, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !active {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked"))
					return
				}
			}

			ctx = WithActor(ctx, Actor{UserID: claims.UserID, Role: claims.Role})
			if logg != nil {
				ctx = logg.WithField(logg.WithUserID(ctx, claims.UserID.String()), "actor_role", string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
