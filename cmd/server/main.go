package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/sign-gateway/internal/api"
	"github.com/Rrens/sign-gateway/internal/api/handler"
	"github.com/Rrens/sign-gateway/internal/classifier"
	"github.com/Rrens/sign-gateway/internal/config"
	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/logging"
	"github.com/Rrens/sign-gateway/internal/repository/memory"
	"github.com/Rrens/sign-gateway/internal/repository/postgres"
	"github.com/Rrens/sign-gateway/internal/repository/redis"
	"github.com/Rrens/sign-gateway/internal/repository/sqlite"
)

func main() {
	// Load .env file - try multiple locations
	envFile := ""
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			envFile = p
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logCloser, err := logging.Setup(cfg.Logging, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if envFile != "" {
		log.Info().Str("path", envFile).Msg("Loaded .env")
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = uuid.NewString() + uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("addr", cfg.Server.Addr()).
		Str("store", cfg.Store.Driver).
		Msg("Starting sign gateway")

	ctx := context.Background()

	// Initialize user store
	users, closeStore, err := openUserStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open user store")
	}
	defer closeStore()

	// Initialize Redis rate limiter
	deps := api.Dependencies{Users: users, Ready: map[string]handler.Pinger{}}
	if p, ok := users.(handler.Pinger); ok {
		deps.Ready["store"] = p
	}
	if cfg.RateLimit.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		deps.Limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		deps.Ready["redis"] = redisClient
		log.Info().
			Int("requests", cfg.RateLimit.Requests).
			Dur("window", cfg.RateLimit.Window).
			Msg("Rate limiting enabled")
	}

	logDiagnostics(cfg)

	// Initialize router
	router, err := api.NewRouter(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func openUserStore(ctx context.Context, cfg config.StoreConfig) (domain.UserRepository, func(), error) {
	switch cfg.Driver {
	case "postgres":
		repo, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil

	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close SQLite store")
			}
		}, nil

	default:
		log.Warn().Msg("Using in-memory user store; accounts are lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}
}

func logDiagnostics(cfg *config.Config) {
	if entries, err := os.ReadDir(cfg.Signs.Dir); err != nil {
		log.Warn().Str("dir", cfg.Signs.Dir).Msg("Sign images directory not found")
	} else {
		log.Info().Str("dir", cfg.Signs.Dir).Int("files", len(entries)).Msg("Sign images available")
	}

	report := handler.ClassifierStatus(classifier.OptionsFromConfig(cfg.Classifier))
	event := log.Info()
	if report.Error != "" {
		event = log.Warn().Str("error", report.Error)
	}
	event.
		Str("command", report.Command).
		Strs("args", report.Args).
		Bool("script_exists", report.ScriptExists).
		Str("timeout", report.Timeout).
		Msg("Classifier")
}
