package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/lorrc/service-desk-insights/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/email"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/file"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-insights/internal/auth"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/core/services"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

// ticketSource pairs a loader with the readiness check for the same store.
type ticketSource interface {
	ports.TicketLoader
	ports.TicketSourceChecker
}

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
		"ticket_source", cfg.TicketSource.Kind,
	)

	// 3. Initialize the Ticket Source
	ctx := context.Background()
	source, pool, err := openTicketSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open ticket source", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	operator, err := domain.NewOperator(cfg.Dashboard.Username, cfg.Dashboard.PasswordHash)
	if err != nil {
		logger.Error("invalid dashboard credentials in configuration", "error", err)
		os.Exit(1)
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	hub := websocket.NewHub(logger)
	go hub.Run(bgCtx)

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	var trainMiddleware []func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(bgCtx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(bgCtx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})

		trainLimiter := mw.NewRateLimitByKey(bgCtx, cfg.RateLimit.TrainRPS, cfg.RateLimit.TrainBurst)
		trainMiddleware = append(trainMiddleware, trainLimiter.PerOperator)
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Notifier (Secondary Adapter)
	notifier := email.NewMockSMTPNotifier(cfg.Alerts.ManagerEmail, logger)

	// Services (Core)
	authService := services.NewAuthService(operator)
	anomalyService := services.NewAnomalyService(source, notifier, hub, cfg.Detection.Rules, logger)

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, tokenManager, errorHandler, logger)
	anomalyHandler := httpAdapter.NewAnomalyHandler(anomalyService, errorHandler, logger, trainMiddleware...)
	healthHandler := httpAdapter.NewHealthHandler(source, anomalyService, cfg.App.Version)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, httpAdapter.WebSocketConfig{
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		IsDevelopment:   cfg.IsDevelopment(),
	}, logger)

	// 7. Setup Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:             logger,
		TokenManager:       tokenManager,
		AuthHandler:        authHandler,
		AnomalyHandler:     anomalyHandler,
		HealthHandler:      healthHandler,
		WebSocketHandler:   wsHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:         cfg.CORS.MaxAge,
		GeneralRateLimiter: generalRateLimiter,
		AuthRateLimiter:    authRateLimiter,
	})

	// 8. Initial training run. Readers train lazily if this has not
	// finished yet.
	if cfg.Detection.TrainOnStartup {
		go func() {
			result := anomalyService.Train(ctx)
			if !result.Trained {
				logger.Warn("startup training did not produce a baseline", "error", result.Error)
			}
		}()
	}

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
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

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Drain pending alert notifications, then stop the hub and limiter sweeps.
	anomalyService.Shutdown()
	stopBackground()

	logger.Info("server shutdown complete")
}

// openTicketSource builds the configured ticket source. The returned pool is
// nil for file sources.
func openTicketSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ticketSource, *pgxpool.Pool, error) {
	switch cfg.TicketSource.Kind {
	case config.TicketSourceFile:
		logger.Info("loading tickets from file", "path", cfg.TicketSource.File)
		return file.NewTicketLoader(cfg.TicketSource.File, logger), nil, nil

	case config.TicketSourcePostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return nil, nil, err
			}
			logger.Info("database migrations applied", "path", cfg.Database.MigrationsPath)
		}

		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connection established")
		return postgres.NewTicketLoader(pool), pool, nil

	default:
		return nil, nil, fmt.Errorf("unknown ticket source %q", cfg.TicketSource.Kind)
	}
}
