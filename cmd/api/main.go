package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpAdapter "github.com/airnode/airtrack-backend/internal/adapters/primary/http"
	mw "github.com/airnode/airtrack-backend/internal/adapters/primary/http/middleware"
	"github.com/airnode/airtrack-backend/internal/adapters/primary/websocket"
	kafkaAdapter "github.com/airnode/airtrack-backend/internal/adapters/secondary/kafka"
	"github.com/airnode/airtrack-backend/internal/adapters/secondary/postgres"
	"github.com/airnode/airtrack-backend/internal/adapters/secondary/rediscache"
	"github.com/airnode/airtrack-backend/internal/auth"
	"github.com/airnode/airtrack-backend/internal/bridge"
	"github.com/airnode/airtrack-backend/internal/config"
	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/core/services"
	"github.com/airnode/airtrack-backend/internal/infrastructure/logging"
	"github.com/airnode/airtrack-backend/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	// 4. Initialize Cache and Event Log Clients
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed", "error", err)
		os.Exit(1)
	}
	cache := rediscache.New(redisClient, cfg.Redis.WriteTimeout)

	publisher, err := kafkaAdapter.NewPublisher(kafkaAdapter.PublisherConfig{
		Brokers:        cfg.Kafka.Brokers,
		FlightTopic:    cfg.Kafka.FlightTopic,
		BaggageTopic:   cfg.Kafka.BaggageTopic,
		PublishTimeout: cfg.Kafka.PublishTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}

	// 5. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// The bridge consumes both topics and fans out to the hub. A shared
	// consumer group keeps replicas from double-delivering.
	history := bridge.NewHistory(cfg.Bridge.HistorySize)
	sources := []ports.MessageSource{
		kafkaAdapter.NewConsumer(kafkaAdapter.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.FlightTopic,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}),
		kafkaAdapter.NewConsumer(kafkaAdapter.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.BaggageTopic,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}),
	}
	notificationBridge := bridge.New(bridge.Config{
		ChannelBuffer:   cfg.Bridge.ChannelBuffer,
		ShutdownTimeout: cfg.Bridge.ShutdownTimeout,
	}, sources, hub, history, logger)

	if err := notificationBridge.Start(ctx); err != nil {
		logger.Error("failed to start notification bridge", "error", err)
		os.Exit(1)
	}

	// 6. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 7. Dependency Injection (Wiring the Hexagon)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	flightRepo := postgres.NewFlightRepository(pool)
	baggageRepo := postgres.NewBaggageRepository(pool)

	// Services (Core)
	cacheKeys := services.CacheKeys{
		FlightStatus: rediscache.FlightStatusKey,
		FlightSearch: rediscache.FlightSearchKey,
		Baggage:      rediscache.BaggageKey,
	}
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	flightService := services.NewFlightService(flightRepo, userRepo, publisher, cache, cacheKeys, services.FlightCacheTTL{
		Status: cfg.Redis.FlightStatusTTL,
		Search: cfg.Redis.FlightSearchTTL,
	}, logger)
	baggageService := services.NewBaggageService(baggageRepo, flightRepo, publisher, cache, cacheKeys, cfg.Redis.BaggageTTL, logger)

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, tokenManager, errorHandler, logger)
	userHandler := httpAdapter.NewUserHandler(userService, errorHandler, logger)
	flightHandler := httpAdapter.NewFlightHandler(flightService, errorHandler, logger)
	baggageHandler := httpAdapter.NewBaggageHandler(baggageService, errorHandler, logger)
	historyHandler := httpAdapter.NewHistoryHandler(history, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Probe and scrape endpoints (outside /api/v1 for standard paths)
	healthHandler.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Route("/auth", authHandler.RegisterRoutes)
		})

		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			r.Route("/me", userHandler.RegisterMeRoutes)
			r.Route("/flights", flightHandler.RegisterRoutes)
			r.Route("/baggage", baggageHandler.RegisterRoutes)
			r.Route("/notifications", historyHandler.RegisterRoutes)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRoles(domain.RoleAdmin))
				r.Route("/users", userHandler.RegisterAdminRoutes)
			})
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first, then drain the pipeline outward-in:
	// bridge stops consuming, services flush pending side effects, the hub
	// disconnects subscribers, and the publisher flushes its batches.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := notificationBridge.Drain(); err != nil {
		logger.Error("bridge drain error", "error", err)
	}

	flightService.Shutdown()
	baggageService.Shutdown()
	hub.Shutdown()

	if err := publisher.Close(); err != nil {
		logger.Error("publisher close error", "error", err)
	}

	logger.Info("server shutdown complete")
}
