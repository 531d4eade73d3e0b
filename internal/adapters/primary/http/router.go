package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-insights/internal/auth"
)

// RouterConfig collects the handlers and middleware mounted by NewRouter.
// Nil rate limiters and a nil metrics handler are skipped.
type RouterConfig struct {
	Logger       *slog.Logger
	TokenManager *auth.TokenManager

	AuthHandler      *AuthHandler
	AnomalyHandler   *AnomalyHandler
	HealthHandler    *HealthHandler
	WebSocketHandler http.Handler
	MetricsHandler   http.Handler

	CORSAllowedOrigins []string
	CORSMaxAge         int

	GeneralRateLimiter *mw.RateLimiter
	AuthRateLimiter    *mw.RateLimiter
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           cfg.CORSMaxAge,
	}))

	// Health check endpoints (outside /api/v1 for standard probe paths)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.GeneralRateLimiter != nil {
			r.Use(cfg.GeneralRateLimiter.Middleware)
		}

		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter.Middleware)
			}
			cfg.AuthHandler.RegisterRoutes(r)
		})

		// WebSocket route (Authentication is handled inside the handler)
		if cfg.WebSocketHandler != nil {
			r.Method(http.MethodGet, "/ws", cfg.WebSocketHandler)
		}

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(cfg.TokenManager))
			cfg.AnomalyHandler.RegisterRoutes(r)
		})
	})

	return r
}
