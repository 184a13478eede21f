package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/task-manager/internal/api"
	"github.com/Rrens/task-manager/internal/api/handler"
	"github.com/Rrens/task-manager/internal/config"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/logger"
	"github.com/Rrens/task-manager/internal/repository/postgres"
	"github.com/Rrens/task-manager/internal/repository/redis"
	"github.com/Rrens/task-manager/internal/repository/sqlite"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// store is the database handle shared by repositories
type store interface {
	handler.Pinger
	io.Closer
}

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := ""
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envLoaded = p
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging, cfg.App.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	if envLoaded != "" {
		log.Debug().Str("path", envLoaded).Msg("Loaded .env")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("env", cfg.App.Env).
		Str("driver", cfg.Database.Driver).
		Msg("Starting task manager API server")

	ctx := context.Background()

	// Initialize database
	deps, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	} else {
		log.Warn().Msg("Redis disabled, rate limiting is off")
	}

	// Initialize router
	router, err := api.NewRouter(cfg, deps)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (api.Dependencies, store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.FileDSN(cfg.Database.SQLitePath))
		if err != nil {
			return api.Dependencies{}, nil, err
		}
		return api.Dependencies{
			Users: sqlite.NewUserRepository(db),
			Tasks: sqlite.NewTaskRepository(db),
			Store: db,
		}, db, nil

	default:
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN(), ""); err != nil {
				return api.Dependencies{}, nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return api.Dependencies{}, nil, err
		}
		return api.Dependencies{
			Users: postgres.NewUserRepository(db),
			Tasks: postgres.NewTaskRepository(db),
			Store: db,
		}, db, nil
	}
}
