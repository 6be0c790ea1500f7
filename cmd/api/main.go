package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cartelabolao/cartela-admin/api/controllers"
	"github.com/cartelabolao/cartela-admin/api/routes"
	"github.com/cartelabolao/cartela-admin/internal/app"
	"github.com/cartelabolao/cartela-admin/internal/cron"
	"github.com/cartelabolao/cartela-admin/internal/fixtures"
	"github.com/cartelabolao/cartela-admin/internal/realtime"
	"github.com/cartelabolao/cartela-admin/pkg/auth/session"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/instance"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/migrate"
	"github.com/cartelabolao/cartela-admin/pkg/redis"
	"github.com/cartelabolao/cartela-admin/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.Prepare(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to prepare schema", err)
		os.Exit(1)
	}

	if cfg.FeatureFlags.SeedFixtures {
		result, err := fixtures.Seed(ctx, dbClient, *cfg, logg)
		if err != nil {
			logg.Error(ctx, "failed to seed fixtures", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"skipped":  result.Skipped,
			"users":    result.Users,
			"editions": result.Editions,
			"sales":    result.Sales,
		}), "fixtures ready")
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := realtime.NewHub(logg, cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	container, err := app.Build(app.Params{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Registerer:  registry,
		Broadcaster: hub,
		Sessions:    sessionManager,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Services:    container.Services,
		Sessions:    sessionManager,
		Idempotency: redisClient,
		RateLimits:  redisClient,
		Realtime:    hub,
		Metrics:     registry,
		Readiness: []controllers.ReadinessCheck{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
		},
	}

	if cfg.GCS.Enabled() {
		storage, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap storage", err)
			os.Exit(1)
		}
		deps.Storage = storage
		deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "storage", Pinger: storage})
	} else {
		logg.Warn(ctx, "upload bucket not configured, direct uploads disabled")
	}

	if cfg.FeatureFlags.EmbeddedCron {
		lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Automation.LockTTL, cron.WithInstance(instance.GetID()))
		if err != nil {
			logg.Error(ctx, "failed to create cron lock", err)
			os.Exit(1)
		}
		scheduler, err := container.CronService(logg, lock)
		if err != nil {
			logg.Error(ctx, "failed to create cron service", err)
			os.Exit(1)
		}
		go func() {
			if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "embedded cron stopped unexpectedly", err)
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"cron":     cfg.FeatureFlags.EmbeddedCron,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
