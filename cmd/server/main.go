package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-booking-api/internal/booking"
	"clinic-booking-api/internal/config"
	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/handler"
	"clinic-booking-api/internal/logging"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/observability/metrics"
	"clinic-booking-api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting to database failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool, cfg.MigrationsFile); err != nil {
		logger.Error("applying migrations failed", "file", cfg.MigrationsFile, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied", "file", cfg.MigrationsFile)

	st := store.New(pool)

	var dir directory.Client
	if cfg.DirectoryBaseURL != "" {
		dir, err = directory.NewHTTPClient(directory.Config{
			BaseURL: cfg.DirectoryBaseURL,
			Timeout: cfg.DirectoryTimeout,
		})
		if err != nil {
			logger.Error("creating directory client failed", "error", err)
			os.Exit(1)
		}
		logger.Info("using live directory", "base_url", cfg.DirectoryBaseURL)
	} else {
		dir = directory.NewMock()
		logger.Info("no directory endpoint configured, using mock directory")
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	svc := booking.NewService(st, dir, logger, m)
	h := handler.New(st, svc, dir, cfg.JWTSecret, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Route("/auth", func(r chi.Router) {
		r.With(rl.Limit).Post("/register", h.Register)
		r.With(rl.Limit).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Get("/providers", h.ListProviders)
		r.Get("/providers/{id}/slots", h.ProviderSlots)
		r.Get("/patients", h.ListPatients)
		r.Get("/appointments", h.ListAppointments)
		r.Post("/appointments", h.CreateAppointment)
		r.Delete("/appointments/{id}", h.DeleteAppointment)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// applyMigrations runs the schema file against the database. The DDL
// is idempotent so this is safe on every start.
func applyMigrations(ctx context.Context, pool *pgxpool.Pool, file string) error {
	sql, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, string(sql))
	return err
}
