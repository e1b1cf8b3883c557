package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/expertpos/expert-pos/internal/app"
	"github.com/expertpos/expert-pos/internal/auth"
	"github.com/expertpos/expert-pos/internal/dashboard"
	"github.com/expertpos/expert-pos/internal/observability"
	"github.com/expertpos/expert-pos/internal/platform/cache"
	"github.com/expertpos/expert-pos/internal/platform/db"
	"github.com/expertpos/expert-pos/internal/products"
	"github.com/expertpos/expert-pos/internal/purchases"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/sales"
	"github.com/expertpos/expert-pos/internal/shared"
	"github.com/expertpos/expert-pos/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := auth.NewCodec(cfg.AuthTokenSecret)
	if err != nil {
		logger.Error("token codec", slog.Any("error", err))
		os.Exit(1)
	}
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		logger.Error("password hasher", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotency := shared.NewIdempotencyStore(dbpool)
	cookies := cfg.Cookie()

	rbacService := rbac.NewService(rbac.NewRepository(dbpool), auditLogger, logger)

	authRepo := auth.NewRepository(dbpool)
	sessions := auth.NewManager(authRepo, rbacService, codec, logger)
	throttle := auth.NewThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockoutWindow)
	authService := auth.NewService(authRepo, hasher, sessions, throttle, logger)
	authService.SetLoginRecorder(metrics)
	guard := auth.NewGuard(sessions, cookies, metrics, logger)
	authMiddleware := auth.NewMiddleware(cookies, sessions, csrfManager)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, auditLogger, idempotency, logger)
	purchasesService := purchases.NewService(purchases.NewRepository(dbpool), auditLogger, logger)
	productsService := products.NewService(products.NewRepository(dbpool), auditLogger, logger)
	usersService := users.NewService(users.NewRepository(dbpool), hasher, auditLogger, logger)
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), salesRepo, authRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		HealthChecks: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		AuthHandler:      auth.NewHandler(logger, authService, sessions, guard, csrfManager, cookies),
		RBACHandler:      rbac.NewHandler(logger, rbacService, guard),
		UsersHandler:     users.NewHandler(logger, usersService, guard),
		ProductsHandler:  products.NewHandler(productsService, logger, guard),
		SalesHandler:     sales.NewHandler(logger, salesService, guard),
		PurchasesHandler: purchases.NewHandler(logger, purchasesService, guard),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService, guard),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
