package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/internal/odds-processor/cache"
	"github.com/radieske/odds-tracker/internal/odds-processor/consumer"
	"github.com/radieske/odds-tracker/internal/odds-processor/repository"
	sharedcache "github.com/radieske/odds-tracker/internal/shared/cache"
	"github.com/radieske/odds-tracker/internal/shared/config"
	"github.com/radieske/odds-tracker/internal/shared/db"
	"github.com/radieske/odds-tracker/internal/shared/kafka"
	"github.com/radieske/odds-tracker/internal/shared/logger"
	"github.com/radieske/odds-tracker/internal/shared/metrics"
	"github.com/radieske/odds-tracker/internal/shared/scheduler"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("schema migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// respostas do odds-service ficam obsoletas a cada escrita no banco
	rcache := cache.NewRedisCache(redisClient)
	invalidate := func(reason string) {
		ictx, icancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer icancel()
		n, err := rcache.Invalidate(ictx)
		if err != nil {
			log.Warn("cache invalidation failed", zap.String("reason", reason), zap.Error(err))
			return
		}
		log.Debug("cache invalidated", zap.String("reason", reason), zap.Int64("keys", n))
	}

	// Métricas Prometheus para monitoramento do processamento
	m := metrics.NewIngest(prometheus.DefaultRegisterer)

	ingestor := odds.NewIngestor(repository.NewPostgresRepo(pg), log)
	ingestor.OnMerged = func(n int) {
		m.Matches.Add(float64(n))
		invalidate("merge")
	}
	ingestor.OnPurged = func(n int64) {
		m.Purged.Add(float64(n))
		invalidate("purge")
	}
	ingestor.OnError = func(stage string) { m.Errors.WithLabelValues(stage).Inc() }

	// limpeza diária do banco
	sched := scheduler.New(ctx, log)
	if err := sched.Add("purge", cfg.PurgeSchedule, ingestor.PurgeAll); err != nil {
		log.Fatal("invalid schedule", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Configura o consumer Kafka (consumer group odds-processor)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSnapshots, "odds-processor")
	defer reader.Close()

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Merger:     ingestor,
		OnConsumed: func() { m.Consumed.Inc() },
		OnError:    func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("odds-processor started", zap.String("topic", cfg.TopicSnapshots))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	_ = metricsSrv.Close()
	log.Info("odds-processor stopped")
}
