package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/internal/odds-service/cache"
	httpapi "github.com/radieske/odds-tracker/internal/odds-service/http"
	"github.com/radieske/odds-tracker/internal/odds-service/repo"
	sharedcache "github.com/radieske/odds-tracker/internal/shared/cache"
	"github.com/radieske/odds-tracker/internal/shared/config"
	"github.com/radieske/odds-tracker/internal/shared/db"
	"github.com/radieske/odds-tracker/internal/shared/logger"
	"github.com/radieske/odds-tracker/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com db Postgres e garante o schema
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}
	log.Info("postgres connected")

	// conecta com cache Redis
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("redis connected", zap.Duration("cache_ttl", cfg.CacheTTL))

	// métricas e health
	m := metrics.NewAPI(prometheus.DefaultRegisterer)
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	readRepo := repo.NewReadRepo(pg)
	api := &httpapi.API{
		Lister:      odds.NewLister(readRepo),
		Resolver:    odds.NewResolver(readRepo),
		Cache:       cache.New(redisClient, cfg.CacheTTL),
		Log:         log,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("odds-service stopped")
}
