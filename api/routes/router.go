package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cartelabolao/cartela-admin/api/controllers"
	"github.com/cartelabolao/cartela-admin/api/middleware"
	"github.com/cartelabolao/cartela-admin/internal/auth"
	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/internal/commissions"
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
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	pkgredis "github.com/cartelabolao/cartela-admin/pkg/redis"
	"github.com/cartelabolao/cartela-admin/pkg/storage/gcs"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth            auth.Service
	Users           users.Service
	Editions        editions.Service
	Customers       customers.Service
	Sellers         sellers.Service
	Sales           sales.Service
	IndividualCards individualcards.Service
	Bolao           bolao.Service
	Settings        settings.Service
	Dashboard       dashboard.Service
	Commissions     commissions.Service
	Notifications   notifications.Service
}

type rateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

type websocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Deps carries the infrastructure the router needs. Nil interfaces disable
// the matching feature (idempotency, rate limiting, uploads, realtime).
type Deps struct {
	Services    Services
	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	RateLimits  rateLimitStore
	Storage     gcs.Uploader
	Realtime    websocketServer
	Metrics     prometheus.Gatherer
	Readiness   []controllers.ReadinessCheck
	Now         func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	svc := deps.Services
	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.AuthRateLimit.CheckoutWindow,
		cfg.AuthRateLimit.CheckoutIPLimit,
		0,
	)
	rateLimit := func(policy middleware.RateLimitPolicy) func(http.Handler) http.Handler {
		if deps.RateLimits == nil {
			return passthrough
		}
		return middleware.RateLimit(policy, deps.RateLimits, logg)
	}
	idempotency := passthrough
	if deps.Idempotency != nil {
		idempotency = middleware.Idempotency(deps.Idempotency, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(rateLimit(loginPolicy)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Get("/me", controllers.AuthMe(svc.Auth, logg))
	})

	r.Route("/api/v1/public", func(r chi.Router) {
		r.Use(idempotency)
		r.Get("/editions/active", controllers.GetActiveEdition(svc.Editions, logg))
		r.With(rateLimit(checkoutPolicy)).Post("/sales", controllers.PublicCreateSale(svc.Sales, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Get("/ws/notifications", func(w http.ResponseWriter, req *http.Request) {
			if deps.Realtime == nil {
				http.NotFound(w, req)
				return
			}
			deps.Realtime.ServeWS(w, req)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(idempotency)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Get("/", controllers.ListUsers(svc.Users, logg))
			r.Post("/", controllers.CreateUser(svc.Users, logg))
			r.Patch("/{userId}", controllers.UpdateUser(svc.Users, logg))
		})

		r.Route("/editions", func(r chi.Router) {
			r.Get("/", controllers.ListEditions(svc.Editions, logg))
			r.Get("/active", controllers.GetActiveEdition(svc.Editions, logg))
			r.Get("/{editionId}", controllers.GetEdition(svc.Editions, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
				r.Post("/", controllers.CreateEdition(svc.Editions, logg))
				r.Patch("/{editionId}", controllers.UpdateEdition(svc.Editions, logg))
				r.Post("/{editionId}/activate", controllers.ActivateEdition(svc.Editions, logg))
				r.Post("/{editionId}/finalize", controllers.FinalizeEdition(svc.Editions, logg))
				r.Post("/{editionId}/sales-paused", controllers.SetEditionSalesPaused(svc.Editions, logg))
				r.Delete("/{editionId}", controllers.DeleteEdition(svc.Editions, logg))
			})
		})

		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(svc.Customers, logg))
			r.Post("/", controllers.CreateCustomer(svc.Customers, logg))
			r.Get("/{customerId}", controllers.GetCustomer(svc.Customers, logg))
			r.Patch("/{customerId}", controllers.UpdateCustomer(svc.Customers, logg))
			r.Delete("/{customerId}", controllers.DeleteCustomer(svc.Customers, logg))
		})

		mountSellers(r, "/promotoras", svc.Sellers, enums.SellerKindPromoter, logg)
		mountSellers(r, "/revendedores", svc.Sellers, enums.SellerKindReseller, logg)

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(svc.Sales, logg))
			r.Post("/", controllers.CreateSale(svc.Sales, logg))
			r.Get("/{saleId}", controllers.GetSale(svc.Sales, logg))
			r.Patch("/{saleId}", controllers.UpdateSale(svc.Sales, logg))
			r.Patch("/{saleId}/payment-status", controllers.UpdateSalePaymentStatus(svc.Sales, logg))
			r.Delete("/{saleId}", controllers.DeleteSale(svc.Sales, logg))
		})

		r.Route("/individual-cards", func(r chi.Router) {
			r.Get("/", controllers.ListIndividualCards(svc.IndividualCards, logg))
			r.Get("/{cardId}", controllers.GetIndividualCard(svc.IndividualCards, logg))
			r.Patch("/{cardId}", controllers.UpdateIndividualCard(svc.IndividualCards, logg))
			r.Post("/{cardId}/send-whatsapp", controllers.SendIndividualCardWhatsApp(svc.IndividualCards, logg))
		})

		r.Route("/bolao", func(r chi.Router) {
			r.Get("/groups", controllers.ListBolaoGroups(svc.Bolao, logg))
			r.Post("/groups", controllers.CreateBolaoGroup(svc.Bolao, logg))
			r.Get("/groups/{groupId}", controllers.GetBolaoGroup(svc.Bolao, logg))
			r.Post("/groups/{groupId}/reset-sent", controllers.ResetBolaoGroupSent(svc.Bolao, logg))
			r.Get("/groups/{groupId}/uploads", controllers.ListBolaoGroupUploads(svc.Bolao, logg))
			r.Post("/process-pending", controllers.ProcessPendingBolaoSales(svc.Bolao, logg))
			r.Post("/send-ready", controllers.SendReadyBolaoGroups(svc.Bolao, logg))
		})

		r.Post("/upload/direct", controllers.UploadDirect(controllers.UploadOptions{
			Storage:         deps.Storage,
			Bolao:           svc.Bolao,
			IndividualCards: svc.IndividualCards,
			MaxUploadMB:     cfg.GCS.MaxUploadMB,
		}, logg))

		r.Get("/settings", controllers.GetSettings(svc.Settings, logg))
		r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Put("/settings", controllers.PutSettings(svc.Settings, logg))

		r.Get("/dashboard", controllers.DashboardStats(svc.Dashboard, deps.Now, logg))
		r.Get("/reports/commissions", controllers.CommissionReport(svc.Commissions, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
		})
	})

	return r
}

func mountSellers(r chi.Router, path string, svc sellers.Service, kind enums.SellerKind, logg *logger.Logger) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", controllers.ListSellers(svc, kind, logg))
		r.Post("/", controllers.CreateSeller(svc, kind, logg))
		r.Get("/{sellerId}", controllers.GetSeller(svc, kind, logg))
		r.Patch("/{sellerId}", controllers.UpdateSeller(svc, kind, logg))
		r.Delete("/{sellerId}", controllers.DeleteSeller(svc, kind, logg))
	})
}

func passthrough(next http.Handler) http.Handler {
	return next
}
