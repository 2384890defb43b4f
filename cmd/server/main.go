package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/wisora/internal/cache"
	"github.com/anonto42/wisora/internal/middleware"
	"github.com/anonto42/wisora/internal/router"
	"github.com/anonto42/wisora/internal/validators"
	"github.com/anonto42/wisora/pkg/config"
	"github.com/anonto42/wisora/pkg/firebase"
	"github.com/anonto42/wisora/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()
	log := logger.New("wisora-api", cfg.LogLevel, cfg.IsDevelopment())

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	opts := router.Options{
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		Cache:     cache.New(db.Redis, cfg.CacheTTL, log),
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Log:       log,
	}

	verifier, err := firebase.NewVerifier(ctx, firebase.Config{
		CredentialsPath: cfg.FirebaseCredentialsPath,
		ProjectID:       cfg.FirebaseProjectID,
		CheckRevoked:    cfg.FirebaseCheckRevoked,
	}, log)
	switch {
	case err == nil:
		opts.Verifier = verifier
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Warn().Msg("firebase auth disabled")
	default:
		log.Fatal().Err(err).Msg("failed to initialize firebase")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, opts)
	router.SetupRoutes(e, router.NewRepositories(db.Postgres, db.Mongo.Database(cfg.MongoDatabase)), opts)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
