// Package main is the entry point for the TripWise API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripwise/backend/internal/config"
	"github.com/tripwise/backend/internal/handler"
	"github.com/tripwise/backend/internal/logging"
	"github.com/tripwise/backend/internal/middleware"
	"github.com/tripwise/backend/internal/repo"
	"github.com/tripwise/backend/internal/schema"
	"github.com/tripwise/backend/internal/service"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger, _ := logging.New(logging.Options{Level: cfg.LogLevel})
	slog.SetDefault(logger)
	if cfg.SessionSecretGenerated {
		slog.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	// --- Schema -----------------------------------------------------------
	// Bring the tables up to date before serving. Failures are logged and
	// the server still starts so the liveness endpoints keep answering.
	schema.RepairOnStartup(context.Background(), cfg.DatabaseURL, logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Warn("database unreachable; starting anyway", "error", err)
	} else {
		slog.Info("database connection established")
	}

	// --- Services ---------------------------------------------------------
	tripSvc := service.NewTripService(repo.NewTripRepo(pool))
	sessions := service.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL)
	authSvc := service.NewAuthService(repo.NewDriverRepo(pool), sessions, bcrypt.DefaultCost)

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → metrics.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(metrics.Handler)

	srvHandlers := handler.NewServer(tripSvc, authSvc, cfg.Version)
	srvHandlers.SecureCookies = cfg.SecureCookies
	srvHandlers.Mount(r, middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
