// Package main is the entrypoint for the transcription API HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vocali/transcription-api/internal/app"
	"github.com/vocali/transcription-api/internal/config"
	"github.com/vocali/transcription-api/internal/handler"
	"github.com/vocali/transcription-api/internal/logger"
	"github.com/vocali/transcription-api/internal/middleware"
	"github.com/vocali/transcription-api/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	srv := server.New(setupRouter(a, log), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, log)
	srv.OnShutdown("store", func(context.Context) error { return a.Close() })

	log.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"stage", cfg.Stage,
		"store", cfg.Store.Backend,
		"identity", cfg.Identity.Backend,
	)

	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupRouter mounts the API routes behind the request middleware.
func setupRouter(a *app.App, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))

	health := handler.NewHealthHandler(map[string]handler.HealthChecker{"store": a.Store})
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", handler.NewMetricsHandler(a.Metrics).Metrics)

	a.Router.Mount(r)

	r.NotFound(a.Router.NotFound)
	r.MethodNotAllowed(a.Router.MethodNotAllowed)

	return r
}
