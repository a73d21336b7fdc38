package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/adapter"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/config"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/database"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/health"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/kafka"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/logger"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/metrics"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/middleware"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/ratelimit"
	pkgredis "github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/redis"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/tracing"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/saga"
)

const serviceName = "service-promotion"

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

	zapLogger.Info("starting "+serviceName, zap.String("port", cfg.Port))

	// Tracing is a no-op without a collector endpoint
	shutdownTracing, err := tracing.Init(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		zapLogger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := repository.AutoMigrate(db); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Connect to Redis (refresh tokens and rate limits)
	redisClient, err := pkgredis.NewClient(context.Background(), cfg.RedisConfig)
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	clk := clock.System{}

	// Initialize token service
	tokenService, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.JWTConfig.AccessSecret,
		RefreshSecret: cfg.JWTConfig.RefreshSecret,
		AccessTTL:     cfg.JWTConfig.AccessTTL,
		RefreshTTL:    cfg.JWTConfig.RefreshTTL,
	}, auth.NewRedisRefreshTokenStore(redisClient), clk)
	if err != nil {
		zapLogger.Fatal("failed to initialize token service", zap.Error(err))
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()
	publisher := events.NewKafkaPublisher(kafkaProducer)

	notifier := adapter.NewLogNotifier(zapLogger)

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	merchantRepo := repository.NewGormMerchantRepository(db)
	promotionRepo := repository.NewGormPromotionRepository(db)
	favoriteRepo := repository.NewGormFavoriteRepository(db)
	clickRepo := repository.NewGormClickRepository(db)

	// Initialize application services
	onboarding := saga.NewOnboardingService(merchantRepo, userRepo, publisher, clk, zapLogger)
	authService := application.NewAuthService(userRepo, tokenService, clk, zapLogger)
	promotionService := application.NewPromotionService(promotionRepo, merchantRepo, publisher, notifier, clk, zapLogger)
	merchantService := application.NewMerchantService(merchantRepo, onboarding, tokenService, publisher, notifier, clk, zapLogger)
	userService := application.NewUserService(userRepo, merchantRepo, clk, zapLogger)
	favoriteService := application.NewFavoriteService(favoriteRepo, promotionRepo, clk, zapLogger)
	analyticsService := application.NewAnalyticsService(clickRepo, promotionRepo, publisher, clk, zapLogger)

	// Initialize Kafka consumer for click events
	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "promotion-clicks"
	clickConsumer := events.NewClickEventConsumer(cfg.KafkaConfig.Brokers, consumerGroupID, analyticsService, zapLogger)
	defer clickConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting click event consumer")
		if err := clickConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("click event consumer failed", zap.Error(err))
			}
		}
	}()

	// Authorization and metrics
	registry := metrics.NewRegistry()
	guard := handler.NewGuard(policy.NewAuthorizer(tokenService, promotionRepo, registry, zapLogger))
	loginLimit := middleware.RateLimitMiddleware(
		ratelimit.NewFixedWindow(redisClient, "ratelimit:"),
		middleware.RateLimitConfig{Limit: cfg.LoginRateLimit.Limit, Window: cfg.LoginRateLimit.Window},
		zapLogger,
	)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware(registry))

	// Register health check and metrics routes
	health.NewHandler(db, redisClient, serviceName).RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler(registry))

	// Register API routes
	apiV1 := router.Group("/api/v1")
	handler.NewAuthHandler(authService).RegisterRoutes(apiV1, loginLimit)
	handler.NewPromotionHandler(promotionService, favoriteService, analyticsService).RegisterRoutes(apiV1, guard)
	handler.NewMerchantHandler(merchantService, promotionService, analyticsService).RegisterRoutes(apiV1, guard)
	handler.NewUserHandler(userService, favoriteService).RegisterRoutes(apiV1, guard)
	handler.NewAdminHandler(promotionService, merchantService, userService).RegisterRoutes(apiV1, guard)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLogger.Error("failed to flush traces", zap.Error(err))
	}

	zapLogger.Info(serviceName + " stopped")
}
