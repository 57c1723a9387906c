package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/adapter"
	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/config"
	"github.com/oponmeta/service-checkout/internal/events"
	"github.com/oponmeta/service-checkout/internal/handler"
	"github.com/oponmeta/service-checkout/internal/platform/database"
	"github.com/oponmeta/service-checkout/internal/platform/health"
	"github.com/oponmeta/service-checkout/internal/platform/logger"
	"github.com/oponmeta/service-checkout/internal/platform/middleware"
	"github.com/oponmeta/service-checkout/internal/repository"
	"github.com/oponmeta/service-checkout/internal/repository/cartstore"
	"github.com/oponmeta/service-checkout/internal/saga"
)

const serviceName = "service-checkout"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("payment_mode", cfg.PaymentConfig.Mode),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.CourseModel{},
			&repository.CouponModel{},
			&repository.CouponProductModel{},
			&repository.CouponUsageModel{},
			&repository.PaymentModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	healthHandler := health.NewHandler(db, serviceName)

	// Cart store: Redis when configured, process memory otherwise
	var carts cartstore.Store
	if cfg.RedisConfig.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer redisClient.Close()

		redisStore := cartstore.NewRedisStore(redisClient, cfg.RedisConfig.CartTTL)
		healthHandler.AddCheck("redis", redisStore.Ping)
		carts = redisStore
		zapLogger.Info("using redis cart store", zap.String("addr", cfg.RedisConfig.Addr))
	} else {
		carts = cartstore.NewMemoryStore()
		zapLogger.Warn("REDIS_ADDR not set, carts are kept in process memory")
	}

	// Initialize Kafka producer
	kafkaProducer := events.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize payment gateways
	gateways := newGatewayRegistry(cfg, zapLogger)
	zapLogger.Info("payment gateways ready", zap.Strings("gateways", gateways.Names()))

	// Initialize repositories
	courseRepo := repository.NewGormCourseRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	businessMetrics := application.NewMetrics(registry)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Initialize saga and application services
	policy := application.GatewayPolicy{
		Table:   cfg.PaymentConfig.Gateways,
		Default: cfg.PaymentConfig.DefaultGateway,
	}
	sagaService := saga.NewCheckoutSagaService(paymentRepo, couponRepo, carts, kafkaProducer, cfg.KafkaConfig.CheckoutTopic, zapLogger)

	cartService := application.NewCartService(carts, courseRepo, couponRepo, cfg.RegionRules, policy, businessMetrics, zapLogger)
	checkoutService := application.NewCheckoutService(carts, couponRepo, paymentRepo, gateways, policy, sagaService, businessMetrics, zapLogger)
	couponService := application.NewCouponService(couponRepo, zapLogger)
	catalogService := application.NewCatalogService(courseRepo, zapLogger)

	// Initialize Kafka consumer for catalog events
	catalogConsumer := events.NewCatalogEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+"checkout-service",
		cfg.KafkaConfig.CatalogTopic,
		catalogService,
		zapLogger,
	)
	defer catalogConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting catalog event consumer", zap.String("topic", cfg.KafkaConfig.CatalogTopic))
		if err := catalogConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("catalog event consumer failed", zap.Error(err))
			}
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(httpMetrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	// Register health check and metrics routes
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register API routes
	apiV1 := router.Group("/api/v1")
	handler.NewCartHandler(cartService).RegisterRoutes(apiV1)
	handler.NewCheckoutHandler(checkoutService).RegisterRoutes(apiV1)
	handler.NewCouponHandler(couponService).RegisterRoutes(apiV1)
	handler.NewAdminHandler(couponService, catalogService).RegisterRoutes(apiV1, cfg.AdminToken)
	if cfg.AdminToken == "" {
		zapLogger.Warn("ADMIN_TOKEN not set, admin routes will reject every request")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down " + serviceName + "...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info(serviceName + " stopped")
}

// newGatewayRegistry builds one client per gateway named in the payment
// config. Live mode only has a real Stripe client; other live gateways stay
// unregistered so their currencies fail at checkout instead of being approved.
func newGatewayRegistry(cfg *config.ServiceConfig, logger *zap.Logger) *adapter.Registry {
	names := map[string]struct{}{}
	for _, name := range cfg.PaymentConfig.Gateways {
		names[name] = struct{}{}
	}
	if cfg.PaymentConfig.DefaultGateway != "" {
		names[cfg.PaymentConfig.DefaultGateway] = struct{}{}
	}

	var gws []adapter.Gateway
	for name := range names {
		switch {
		case cfg.PaymentConfig.Mode == "mock":
			gws = append(gws, adapter.NewMockGateway(name, logger))
		case name == "stripe":
			gws = append(gws, adapter.NewStripeGateway(cfg.StripeConfig.SecretKey, logger))
		default:
			logger.Warn("no live client for gateway, currencies bound to it cannot check out",
				zap.String("gateway", name))
		}
	}
	return adapter.NewRegistry(gws...)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Content-Type", middleware.SessionHeader, middleware.RequestIDHeader, middleware.AdminTokenHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") || len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
