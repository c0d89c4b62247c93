package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"monetadirect/internal/auth"
	"monetadirect/internal/checkout"
	"monetadirect/internal/config"
	"monetadirect/internal/currency"
	"monetadirect/internal/db"
	"monetadirect/internal/fee"
	"monetadirect/internal/idempotency"
	"monetadirect/internal/logger"
	"monetadirect/internal/metrics"
	"monetadirect/internal/middleware"
	"monetadirect/internal/order"
	"monetadirect/internal/payment"
	"monetadirect/internal/payment/webhook"
	"monetadirect/internal/settings"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("Server stopped", zap.Error(err))
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L().Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.L().Info("Server starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.AppEnv),
		zap.String("idempotency", cfg.Idempotency),
	)
	if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type handlers struct {
	checkout   *checkout.Handler
	callback   *webhook.Handler
	fee        *fee.Handler
	login      *auth.Handler
	settings   *settings.Handler
	operations *payment.OperationsHandler
	issuer     *auth.Issuer
	metrics    *metrics.Metrics
}

// newServer wires every component and returns the full middleware chain.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	settingsRepo := settings.NewRepository(database)
	provider := settings.NewProvider(loadSettings(ctx, cfg, settingsRepo))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, closeStore, err := newIdempotencyStore(ctx, cfg, database)
	if err != nil {
		return nil, nil, err
	}

	resolver := currency.NewISOResolver(nil)
	processor := payment.NewProcessor()
	orders := order.NewService(order.NewRepository(database))
	issuer := auth.NewIssuer(cfg.Operator.PasswordHash, cfg.Operator.JWTSecret, cfg.Operator.TokenTTL)
	if cfg.Operator.PasswordHash == "" || cfg.Operator.JWTSecret == "" {
		logger.L().Warn("Operator credentials not configured, admin routes will refuse every request")
	}

	router := setupRouter(handlers{
		checkout:   checkout.NewHandler(orders, processor, payment.NewBuilder(resolver), provider, m),
		callback:   webhook.NewWebhookHandler(webhook.NewValidator(provider, orders, store, resolver, m)),
		fee:        fee.NewHandler(fee.NewCalculatorFrom(func() fee.Spec { return provider.Current().Fee })),
		login:      auth.NewHandler(issuer),
		settings:   settings.NewHandler(settingsRepo, provider),
		operations: payment.NewOperationsHandler(processor),
		issuer:     issuer,
		metrics:    m,
	})

	limiter := middleware.NewRateLimiter(m)
	go limiter.Cleanup(ctx)

	chain := logger.RequestIDMiddleware(logger.LoggingMiddleware(limiter.Middleware(router)))
	return chain, closeStore, nil
}

func setupRouter(h handlers) *httprouter.Router {
	r := httprouter.New()
	op := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireOperator(h.issuer, next)
	}
	inst := h.metrics.Instrument

	r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.GET("/metrics", h.metrics.Handler())

	r.GET("/checkout/:order_guid", inst("/checkout/:order_guid", h.checkout.Redirect))
	r.POST("/callback", inst("/callback", h.callback.PaymentCallbackHandler))
	r.GET("/callback", inst("/callback", h.callback.PaymentCallbackHandler))
	r.POST("/fee", inst("/fee", h.fee.HandlingFee))
	r.GET("/payment/capabilities", inst("/payment/capabilities", h.operations.Capabilities))

	r.POST("/admin/login", inst("/admin/login", h.login.Login))
	r.GET("/admin/settings", inst("/admin/settings", op(h.settings.Get)))
	r.PUT("/admin/settings", inst("/admin/settings", op(h.settings.Update)))
	r.DELETE("/admin/settings", inst("/admin/settings", op(h.settings.Uninstall)))
	r.POST("/admin/install", inst("/admin/install", op(h.settings.Install)))
	r.POST("/admin/orders/:order_guid/:operation", inst("/admin/orders/:order_guid/:operation", op(h.operations.Operation)))

	return r
}

// loadSettings prefers the installed row and falls back to the environment.
func loadSettings(ctx context.Context, cfg *config.Config, repo settings.Repository) settings.GatewaySettings {
	log := logger.L()

	s, err := repo.Load(ctx)
	switch {
	case err == nil:
		log.Info("Gateway settings loaded from database", zap.Stringer("settings", s))
		return *s
	case errors.Is(err, settings.ErrNotInstalled):
		log.Info("Gateway settings not installed, using environment")
	default:
		log.Error("Failed to load gateway settings, using environment", zap.Error(err))
	}

	fromEnv := settings.FromConfig(cfg)
	if err := fromEnv.Validate(); err != nil {
		log.Warn("Gateway settings incomplete, checkout will fail until configured", zap.Error(err))
	}
	return fromEnv
}

func newIdempotencyStore(ctx context.Context, cfg *config.Config, database *sql.DB) (idempotency.Store, func(), error) {
	noop := func() {}

	switch cfg.Idempotency {
	case config.IdempotencyRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		prefix := cfg.Redis.KeyPrefix + ":callback:"
		return idempotency.NewRedisStore(client, prefix, cfg.Redis.TTL), func() { _ = client.Close() }, nil
	case config.IdempotencyMemory:
		logger.L().Warn("In-memory idempotency store, duplicates are only detected within this process")
		return idempotency.NewMemoryStore(), noop, nil
	default:
		return idempotency.NewPostgresStore(database), noop, nil
	}
}
