package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adesina-dev/panelpay/internal/api"
	"github.com/adesina-dev/panelpay/internal/config"
	"github.com/adesina-dev/panelpay/internal/db"
	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/gateway"
	"github.com/adesina-dev/panelpay/internal/idempotency"
	"github.com/adesina-dev/panelpay/internal/observability"
	"github.com/adesina-dev/panelpay/internal/repository"
	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/adesina-dev/panelpay/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and background workers, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)
	store := repository.NewStore(pool, domain.ReferralPolicy{
		MinDeposit: cfg.ReferralMinDeposit,
		Bonus:      cfg.ReferralBonus,
	})

	paymentGateway := gateway.NewPaymentClient(cfg.PaymentGatewayURL, cfg.PaymentGatewaySecret, cfg.PaymentTimeout)
	fulfillment := gateway.NewFulfillmentClient(cfg.FulfillmentURL, cfg.FulfillmentAPIKey, cfg.FulfillmentTimeout)

	dispatchSvc := service.NewDispatchService(store, fulfillment, cfg.FulfillmentTimeout, cfg.DispatchBatchSize)
	svcs := api.Services{
		Reconciler:  service.NewReconcilerService(store, cfg.WebhookHMACKey, cfg.WebhookSkipSignature),
		Payments:    service.NewPaymentService(store, paymentGateway),
		Orders:      service.NewOrderService(store),
		Withdrawals: service.NewWithdrawalService(store),
		Profiles:    service.NewProfileService(store),
		Admin:       service.NewAdminService(store),
		Dispatch:    dispatchSvc,
	}

	dispatchWorker := worker.NewDispatchWorker(dispatchSvc).WithInterval(cfg.DispatchPollInterval)
	stopDispatch := dispatchWorker.Run(ctx)
	logger.Info("dispatch worker started",
		zap.Duration("interval", cfg.DispatchPollInterval),
		zap.Int32("batch", cfg.DispatchBatchSize))

	integrityWorker := worker.NewIntegrityWorker(service.NewIntegrityService(store)).WithInterval(cfg.IntegrityInterval)
	stopIntegrity := integrityWorker.Run(ctx)
	logger.Info("integrity worker started", zap.Duration("interval", cfg.IntegrityInterval))

	router := api.NewRouter(cfg, logger, pool, store.Repo(), idemStore, redisClient, svcs)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopDispatch()
	stopIntegrity()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
