// Package app assembles repositories and services from configuration so the
// API server and the cron worker share one wiring path.
package app

import (
	"fmt"
	"time"

	"github.com/cartelabolao/cartela-admin/api/routes"
	"github.com/cartelabolao/cartela-admin/internal/auth"
	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/internal/commissions"
	"github.com/cartelabolao/cartela-admin/internal/cron"
	"github.com/cartelabolao/cartela-admin/internal/customers"
	"github.com/cartelabolao/cartela-admin/internal/dashboard"
	"github.com/cartelabolao/cartela-admin/internal/editions"
	"github.com/cartelabolao/cartela-admin/internal/individualcards"
	"github.com/cartelabolao/cartela-admin/internal/notifications"
	"github.com/cartelabolao/cartela-admin/internal/sales"
	"github.com/cartelabolao/cartela-admin/internal/sellers"
	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/internal/users"
	"github.com/cartelabolao/cartela-admin/pkg/auth/session"
	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/metrics"
	"github.com/cartelabolao/cartela-admin/pkg/telegram"
	"github.com/cartelabolao/cartela-admin/pkg/whatsapp"
	"github.com/prometheus/client_golang/prometheus"
)

// Params carries the infrastructure the container is built on. Broadcaster
// and Sessions may be nil: the cron worker has no websocket clients and never
// issues tokens.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	Registerer  prometheus.Registerer
	Broadcaster notifications.Broadcaster
	Sessions    *session.Manager
	Now         func() time.Time
}

// Container holds every wired service.
type Container struct {
	cfg *config.Config

	Services          routes.Services
	Automation        *bolao.Automation
	NotificationsRepo notifications.Repository
	CronMetrics       *metrics.CronJobMetrics
}

func Build(p Params) (*Container, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if p.Registerer == nil {
		p.Registerer = prometheus.NewRegistry()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	cfg := p.Config
	gdb := p.DB.DB()

	settingsSvc, err := settings.NewService(settings.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("settings service: %w", err)
	}

	dispatcher, err := whatsapp.New(cfg.WhatsApp, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("whatsapp dispatcher: %w", err)
	}
	alerts, err := telegram.New(cfg.Telegram, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}

	notificationsRepo := notifications.NewRepository(gdb)
	notificationsSvc, err := notifications.NewService(notificationsRepo, notifications.Options{
		Broadcaster: p.Broadcaster,
		Alerts:      alerts,
		Settings:    settingsSvc,
		Logger:      p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	automationMetrics := metrics.NewAutomationMetrics(p.Registerer)
	cronMetrics := metrics.NewCronJobMetrics(p.Registerer)

	bolaoRepo := bolao.NewRepository(gdb)
	allocator, err := bolao.NewAllocator(bolaoRepo, p.DB, p.Logger, automationMetrics)
	if err != nil {
		return nil, fmt.Errorf("bolao allocator: %w", err)
	}
	automation, err := bolao.NewAutomation(bolao.AutomationParams{
		Repo:          bolaoRepo,
		Tx:            p.DB,
		Allocator:     allocator,
		Dispatcher:    dispatcher,
		Settings:      settingsSvc,
		Notifications: notificationsSvc,
		Logger:        p.Logger,
		Metrics:       automationMetrics,
		Now:           p.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("bolao automation: %w", err)
	}
	bolaoSvc, err := bolao.NewService(bolaoRepo, p.DB, automation)
	if err != nil {
		return nil, fmt.Errorf("bolao service: %w", err)
	}

	editionsSvc, err := editions.NewService(editions.NewRepository(gdb), p.DB)
	if err != nil {
		return nil, fmt.Errorf("editions service: %w", err)
	}
	customersSvc, err := customers.NewService(customers.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("customers service: %w", err)
	}
	sellersSvc, err := sellers.NewService(sellers.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("sellers service: %w", err)
	}
	salesSvc, err := sales.NewService(sales.NewRepository(gdb), p.DB, sales.Deps{
		Customers: customersSvc,
		Sellers:   sellersSvc,
		Allocate:  allocator.Allocate,
		Logger:    p.Logger,
		Now:       p.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("sales service: %w", err)
	}
	cardsSvc, err := individualcards.NewService(individualcards.NewRepository(gdb), dispatcher, settingsSvc, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("individual cards service: %w", err)
	}
	dashboardSvc, err := dashboard.NewService(dashboard.NewRepository(gdb), cfg.App.Location())
	if err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}
	commissionsSvc, err := commissions.NewService(commissions.NewRepository(gdb), settingsSvc)
	if err != nil {
		return nil, fmt.Errorf("commissions service: %w", err)
	}
	usersRepo := users.NewRepository(gdb)
	usersSvc, err := users.NewService(usersRepo, p.DB, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	services := routes.Services{
		Users:           usersSvc,
		Editions:        editionsSvc,
		Customers:       customersSvc,
		Sellers:         sellersSvc,
		Sales:           salesSvc,
		IndividualCards: cardsSvc,
		Bolao:           bolaoSvc,
		Settings:        settingsSvc,
		Dashboard:       dashboardSvc,
		Commissions:     commissionsSvc,
		Notifications:   notificationsSvc,
	}

	if p.Sessions != nil {
		authSvc, err := auth.NewService(auth.ServiceParams{
			UserRepo:       usersRepo,
			SessionManager: p.Sessions,
			JWTConfig:      cfg.JWT,
			Password:       &cfg.Password,
			Now:            p.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("auth service: %w", err)
		}
		services.Auth = authSvc
	}

	return &Container{
		cfg:               cfg,
		Services:          services,
		Automation:        automation,
		NotificationsRepo: notificationsRepo,
		CronMetrics:       cronMetrics,
	}, nil
}

// CronJobs returns the scheduled jobs in execution order.
func (c *Container) CronJobs(logg *logger.Logger) ([]cron.Job, error) {
	jobs, err := cron.NewBolaoJobs(cron.BolaoJobParams{
		Logger:     logg,
		Settings:   c.Services.Settings,
		Automation: c.Automation,
	})
	if err != nil {
		return nil, err
	}
	cleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: c.NotificationsRepo,
		Retention:  c.cfg.Automation.NotificationRetentionDays,
		Location:   c.cfg.App.Location(),
	})
	if err != nil {
		return nil, err
	}
	return append(jobs, cleanup), nil
}

// CronService builds the scheduler over CronJobs. The lock keeps a single
// replica ticking at a time.
func (c *Container) CronService(logg *logger.Logger, lock cron.Lock) (*cron.Service, error) {
	jobs, err := c.CronJobs(logg)
	if err != nil {
		return nil, fmt.Errorf("cron jobs: %w", err)
	}
	registry, err := cron.NewRegistry(jobs...)
	if err != nil {
		return nil, fmt.Errorf("cron registry: %w", err)
	}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  c.CronMetrics,
		Interval: c.cfg.Automation.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}
	return svc, nil
}
