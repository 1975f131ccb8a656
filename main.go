package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/app"
	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/config"
	"github.com/andrewpaige1/mindflow-api/logging"
)

func init() {
	// Load .env file if not in production environment
	config.LoadDotEnv()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := config.Connect(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := config.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	authenticator, err := auth.NewAuthenticator([]byte(cfg.JWTSecretKey), cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to set up authentication")
	}

	application := app.New(app.Options{
		DB:   db,
		Auth: authenticator,
		AI: ai.NewClient(ai.Config{
			URL:    cfg.AIServiceURL,
			APIKey: cfg.AIAPIKey,
		}),
		AIRatePerMin:   cfg.AIRatePerMinute,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(application.Handler)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Bool("production", cfg.IsProduction()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
