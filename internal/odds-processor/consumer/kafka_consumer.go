package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/pkg/contracts/events"
)

// MessageReader é a parte do kafka.Reader usada pelo loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Merger grava um lote de snapshots; implementado por odds.Ingestor
type Merger interface {
	MergeSnapshots(ctx context.Context, raw []odds.RawMatchSnapshot)
}

// Processor consome lotes do scraper no Kafka e repassa para a ingestão
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Merger Merger

	// espera após falha de leitura
	RetryDelay time.Duration

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	delay := p.RetryDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}

	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var batch events.ScrapeBatch
		if err := json.Unmarshal(m.Value, &batch); err != nil {
			p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("decode")
			continue
		}

		p.Log.Info("merging scrape batch",
			zap.String("batch_id", batch.BatchID),
			zap.Time("scraped_at", batch.ScrapedAt),
			zap.Int("matches", len(batch.Matches)),
		)
		// falhas de escrita são tratadas (e logadas) pelo Merger
		p.Merger.MergeSnapshots(ctx, batch.Matches)
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
