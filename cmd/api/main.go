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

	"github.com/sugicreations/sugi-backend/api/controllers"
	"github.com/sugicreations/sugi-backend/api/routes"
	"github.com/sugicreations/sugi-backend/internal/auth"
	"github.com/sugicreations/sugi-backend/internal/cart"
	"github.com/sugicreations/sugi-backend/internal/dashboard"
	"github.com/sugicreations/sugi-backend/internal/media"
	"github.com/sugicreations/sugi-backend/internal/members"
	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/internal/products"
	"github.com/sugicreations/sugi-backend/internal/taxonomy"
	"github.com/sugicreations/sugi-backend/pkg/auth/session"
	"github.com/sugicreations/sugi-backend/pkg/config"
	"github.com/sugicreations/sugi-backend/pkg/db"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/metrics"
	"github.com/sugicreations/sugi-backend/pkg/migrate"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
	"github.com/sugicreations/sugi-backend/pkg/redis"
	"github.com/sugicreations/sugi-backend/pkg/storage/gcs"
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
		Format:      cfg.App.LoggerFormat(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	readiness := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	// Without a bucket the API still serves; uploads fail with a dependency error.
	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	switch {
	case errors.Is(err, gcs.ErrNotConfigured):
		logg.Warn(ctx, "gcs bucket not configured, image uploads disabled")
	case err != nil:
		requireResource(ctx, logg, "gcs", err)
	default:
		readiness["gcs"] = gcsClient
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	gdb := dbClient.DB()
	dashboardCache := dashboard.NewCacheInvalidator(redisClient)

	categoryService, err := taxonomy.NewService(taxonomy.NewRepository(gdb, taxonomy.Categories))
	requireResource(ctx, logg, "category service", err)
	materialService, err := taxonomy.NewService(taxonomy.NewRepository(gdb, taxonomy.Materials))
	requireResource(ctx, logg, "material service", err)

	productService, err := products.NewService(products.NewRepository(gdb), categoryService, materialService, dashboardCache, logg)
	requireResource(ctx, logg, "product service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(gdb),
		Tx:      dbClient,
		Outbox:  outbox.NewService(outbox.NewRepository(gdb), logg),
		Cache:   dashboardCache,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	requireResource(ctx, logg, "order service", err)

	cartService, err := cart.NewService(redisClient, productService, orderService, cfg.Cart.TTL)
	requireResource(ctx, logg, "cart service", err)

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(gdb), orderService, redisClient, cfg.Dashboard.CacheTTL, logg)
	requireResource(ctx, logg, "dashboard service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Members:        members.NewRepository(gdb),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	mediaService, err := media.NewService(gcsClient, cfg.Media, logg)
	requireResource(ctx, logg, "media service", err)

	handler := routes.NewRouter(routes.Params{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    registry,
		Readiness:   readiness,
		Sessions:    sessionManager,
		RateLimiter: redisClient,
		Idempotency: redisClient,
		Products:    productService,
		Categories:  categoryService,
		Materials:   materialService,
		Orders:      orderService,
		Cart:        cartService,
		Auth:        authService,
		Dashboard:   dashboardService,
		Media:       mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
		logg.Info(serverCtx, "api server shut down")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+resource, err)
	os.Exit(1)
}
