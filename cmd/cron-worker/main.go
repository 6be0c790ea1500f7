// Command cron-worker runs the bolão automation and housekeeping jobs on a
// fixed interval. With -once it runs a single cycle, for hosts that schedule
// the binary externally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cartelabolao/cartela-admin/internal/app"
	"github.com/cartelabolao/cartela-admin/internal/cron"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/instance"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/migrate"
	"github.com/cartelabolao/cartela-admin/pkg/redis"
)

const serviceName = "cron-worker"

type options struct {
	once bool
	jobs []string
}

func main() {
	once := flag.Bool("once", false, "run one cycle and exit")
	only := flag.String("job", "", "comma-separated job names for -once (default all)")
	flag.Parse()

	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Automation.Interval.String(),
	})

	if err := run(ctx, cfg, logg, options{once: *once, jobs: splitJobs(*only)}); err != nil {
		logg.Error(ctx, "cron worker failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.Prepare(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	container, err := app.Build(app.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Automation.LockTTL, cron.WithInstance(instance.GetID()))
	if err != nil {
		return err
	}
	scheduler, err := container.CronService(logg, lock)
	if err != nil {
		return err
	}

	if opts.once {
		logg.Info(logg.WithField(ctx, "jobs", opts.jobs), "running single cron cycle")
		err := scheduler.RunOnce(ctx, opts.jobs...)
		if errors.Is(err, cron.ErrLocked) {
			logg.Warn(ctx, "cron lock held elsewhere, nothing run")
			return nil
		}
		return err
	}

	logg.Info(ctx, "starting cron worker")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", name), "close failed", err)
	}
}

// lockName matches the key the api's embedded scheduler takes, so the two
// never tick at once in the same environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}

func splitJobs(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
