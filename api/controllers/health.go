package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is satisfied by the db, redis and storage clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names a dependency probed by HealthReady.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cartela-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency; nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cartela-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		failed := false
		for _, check := range checks {
			if check.Pinger == nil {
				status[check.Name] = "skipped"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				failed = true
				status[check.Name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", check.Name), "health.ready.failed", err)
				}
				continue
			}
			status[check.Name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(status))
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
