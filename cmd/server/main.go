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

	"laundryops/internal/cache"
	"laundryops/internal/config"
	"laundryops/internal/delivery"
	"laundryops/internal/events"
	"laundryops/internal/httpapi"
	"laundryops/internal/service"
	"laundryops/internal/store"
	"laundryops/internal/store/memory"
	pgstore "laundryops/internal/store/postgres"
	"laundryops/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.InitLogger(os.Stderr, cfg.LogLevel)

	if err := validateSecurityConfig(cfg); err != nil {
		slog.Error("invalid security configuration", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 3)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", "error", err)
			os.Exit(1)
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				slog.Error("schema migration failed", "error", err)
				os.Exit(1)
			}
		}
		repo = pg
		closers = append(closers, pg.Close)
		slog.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		slog.Info("repository: in-memory")
	}

	var estimateCache cache.EstimateCache = cache.NewMemoryEstimateCache()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisEstimateCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, using in-process estimate cache", "error", err)
		} else {
			estimateCache = redisCache
			closers = append(closers, redisCache.Close)
			slog.Info("cache: redis")
		}
	} else {
		slog.Info("cache: in-process")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			slog.Warn("rabbitmq unavailable, order events disabled", "error", err)
		} else {
			publisher = amqpPublisher
			closers = append(closers, func() error {
				amqpPublisher.Close()
				return nil
			})
			slog.Info("events: rabbitmq", "exchange", events.OrdersExchange)
		}
	} else {
		slog.Info("events: disabled")
	}

	estimator := delivery.NewEstimator(estimateCache, cfg.EstimateCacheTTL())
	svc := service.New(repo, estimator, publisher)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("laundry backend listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			slog.Error("close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" && cfg.DatabaseURL != "" {
		return fmt.Errorf("ALLOWED_ORIGIN must not be * with a persistent database")
	}
	return nil
}
