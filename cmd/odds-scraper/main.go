package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds-scraper/publisher"
	"github.com/radieske/odds-tracker/internal/odds-scraper/scraper"
	"github.com/radieske/odds-tracker/internal/shared/config"
	"github.com/radieske/odds-tracker/internal/shared/logger"
	"github.com/radieske/odds-tracker/internal/shared/metrics"
	"github.com/radieske/odds-tracker/internal/shared/scheduler"
	"github.com/radieske/odds-tracker/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("Kafka brokers", zap.String("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.TopicSnapshots))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// em local/dev o tópico é criado na subida (broker único)
	if cfg.Env == "local" || cfg.Env == "dev" {
		broker, _, _ := strings.Cut(cfg.KafkaBrokers, ",")
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		if err := publisher.EnsureTopic(tctx, strings.TrimSpace(broker), cfg.TopicSnapshots, log); err != nil {
			log.Warn("failed to ensure kafka topic", zap.String("topic", cfg.TopicSnapshots), zap.Error(err))
		}
		tcancel()
	}

	pub := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicSnapshots, log)
	defer pub.Close()

	m := metrics.NewScrape(prometheus.DefaultRegisterer)
	scr := scraper.New(cfg.ScraperURL, cfg.ScrapeTimeout, log)
	scr.OnError = func(stage string) { m.Errors.WithLabelValues(stage).Inc() }

	// os três agendamentos podem coincidir; só um ciclo roda por vez
	var running sync.Mutex
	cycle := func(ctx context.Context) {
		if !running.TryLock() {
			log.Info("scrape cycle already running, skipping")
			return
		}
		defer running.Unlock()

		m.Cycles.Inc()
		matches, err := scr.Run(ctx)
		if err != nil {
			log.Error("error occurred during the scraping task", zap.Error(err))
			if len(matches) == 0 {
				return
			}
		}
		if len(matches) == 0 {
			log.Info("no relevant match data found")
			return
		}
		m.Matches.Add(float64(len(matches)))

		batch := events.ScrapeBatch{
			BatchID:   uuid.NewString(),
			Source:    "odds-scraper",
			ScrapedAt: time.Now().UTC(),
			Matches:   matches,
		}
		if err := pub.Publish(ctx, batch); err != nil {
			m.Errors.WithLabelValues("publish").Inc()
		}
	}

	sched := scheduler.New(ctx, log)
	jobs := []struct{ name, spec string }{
		{"scrape", cfg.ScrapeSchedule},
		{"scrape-morning", cfg.MorningSchedule},
		{"scrape-end-of-day", cfg.PurgeSchedule}, // recoleta logo após a limpeza do processor
	}
	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, cycle); err != nil {
			log.Fatal("invalid schedule", zap.Error(err))
		}
	}

	// Metrics e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	sched.Start()
	log.Info("odds-scraper started", zap.String("url", cfg.ScraperURL))

	<-ctx.Done()
	log.Info("shutdown signal received")

	// espera o ciclo em andamento encerrar (o contexto já foi cancelado)
	<-sched.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("odds-scraper stopped")
}
