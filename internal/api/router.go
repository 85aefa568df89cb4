package api

import (
	"github.com/adesina-dev/panelpay/internal/api/handler"
	"github.com/adesina-dev/panelpay/internal/api/middleware"
	"github.com/adesina-dev/panelpay/internal/api/spec"
	"github.com/adesina-dev/panelpay/internal/config"
	"github.com/adesina-dev/panelpay/internal/idempotency"
	"github.com/adesina-dev/panelpay/internal/repository"
	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services bundles the wired business services the router exposes. Tests
// inject fakes behind these instead of a live database.
type Services struct {
	Reconciler  *service.ReconcilerService
	Payments    *service.PaymentService
	Orders      *service.OrderService
	Withdrawals *service.WithdrawalService
	Profiles    *service.ProfileService
	Admin       *service.AdminService
	Dispatch    *service.DispatchService
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	repo   *repository.Repository
	idem   *idempotency.Store
	redis  redis.Cmdable
	svcs   Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, repo *repository.Repository, idem *idempotency.Store, redisClient redis.Cmdable, svcs Services) *Router {
	return &Router{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repo,
		idem:   idem,
		redis:  redisClient,
		svcs:   svcs,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	auth := middleware.NewAuthenticator(api.cfg.JWTSecret, api.cfg.JWTIssuer, api.cfg.JWTAudience)

	webhookHandler := handler.NewWebhookHandler(api.svcs.Reconciler)
	paymentHandler := handler.NewPaymentHandler(api.svcs.Payments)
	orderHandler := handler.NewOrderHandler(api.svcs.Orders, api.repo)
	withdrawalHandler := handler.NewWithdrawalHandler(api.svcs.Withdrawals, api.repo)
	profileHandler := handler.NewProfileHandler(api.svcs.Profiles)
	adminHandler := handler.NewAdminHandler(api.svcs.Admin)
	dispatchHandler := handler.NewDispatchHandler(api.svcs.Dispatch)
	catalogHandler := handler.NewCatalogHandler(api.repo)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Operational surface.
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/webhooks/deposits", webhookHandler.HandleDeposit)
		r.Get("/v1/services", catalogHandler.ListServices)
		r.Get("/v1/services/{id}", catalogHandler.GetService)
	})

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/profiles", profileHandler.Enroll)
		r.Get("/v1/profiles/me", profileHandler.Me)

		r.With(middleware.IdempotencyMiddleware(api.idem, api.logger)).Post("/v1/payments/initiate", paymentHandler.InitiateDeposit)
		r.With(middleware.IdempotencyMiddleware(api.idem, api.logger)).Post("/v1/orders", orderHandler.PlaceOrder)
		r.Get("/v1/orders/{id}", orderHandler.GetOrder)

		r.With(middleware.IdempotencyMiddleware(api.idem, api.logger)).Post("/v1/withdrawals", withdrawalHandler.RequestWithdrawal)
		r.Get("/v1/withdrawals/{id}", withdrawalHandler.GetWithdrawal)

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))

			r.Post("/v1/admin/orders/{id}/status", adminHandler.OverrideOrderStatus)
			r.Post("/v1/admin/withdrawals/{id}/decision", adminHandler.DecideWithdrawal)
			r.Post("/v1/admin/deposits/{id}/settle", adminHandler.SettleDeposit)
			r.Post("/v1/admin/dispatch/run", dispatchHandler.Run)

			r.Post("/v1/admin/services", adminHandler.CreateService)
			r.Put("/v1/admin/services/{id}", adminHandler.UpdateService)
			r.Delete("/v1/admin/services/{id}", adminHandler.DeleteService)
		})
	})

	return r
}
