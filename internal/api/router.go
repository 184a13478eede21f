package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/task-manager/internal/api/cookie"
	"github.com/Rrens/task-manager/internal/api/handler"
	customMiddleware "github.com/Rrens/task-manager/internal/api/middleware"
	"github.com/Rrens/task-manager/internal/config"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/security"
	"github.com/Rrens/task-manager/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dependencies are the stores and optional collaborators the router wires
// into handlers.
type Dependencies struct {
	Users domain.UserRepository
	Tasks domain.TaskRepository
	Store handler.Pinger

	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter customMiddleware.Limiter
	// Registry receives the HTTP metrics; nil creates a private registry.
	Registry *prometheus.Registry
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewRouter creates and configures the HTTP router. It fails only on
// configuration errors.
func NewRouter(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	// Initialize security components
	jwtManager, err := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTRefreshSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		security.WithClock(now),
	)
	if err != nil {
		return nil, err
	}

	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	// Metrics
	var metrics *customMiddleware.Metrics
	registry := deps.Registry
	if cfg.Metrics.Enabled {
		if registry == nil {
			registry = prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		metrics, err = customMiddleware.NewMetrics(registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	// Initialize services
	cookies := cookie.NewTransport(cfg.App.IsProduction(), now)
	authService := service.NewAuthService(deps.Users, hasher, jwtManager, now)
	taskService := service.NewTaskService(deps.Tasks, now)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cookies)
	taskHandler := handler.NewTaskHandler(taskService)

	session := customMiddleware.NewSession(jwtManager, deps.Users, cookies, cfg.Auth.LookupTimeout, metrics)
	limits := cfg.Security.RateLimit
	loginLimit := customMiddleware.RateLimit(deps.RateLimiter, "login", limits.LoginPerMinute, customMiddleware.ByIP, metrics)
	userLimit := customMiddleware.RateLimit(deps.RateLimiter, "api", limits.RequestsPerMinute+limits.Burst, customMiddleware.ByUser, metrics)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", handler.Root)
	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Store))
	if registry != nil && cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.With(loginLimit).Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(session.Authenticate)
				r.Post("/logout", authHandler.Logout)
				r.Get("/check-auth", authHandler.CheckAuth)
			})
		})

		// Protected routes
		r.Route("/tasks", func(r chi.Router) {
			r.Use(session.Authenticate)
			r.Use(userLimit)

			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	return r, nil
}
