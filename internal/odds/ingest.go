package odds

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BuildUpsertOps converte os snapshots brutos em uma operação por partida.
// Todos os snapshots do lote recebem o mesmo timestamp.
func BuildUpsertOps(raw []RawMatchSnapshot, now time.Time) []UpsertOp {
	ops := make([]UpsertOp, 0, len(raw))
	for _, r := range raw {
		appendOps := make(map[string]OddsSnapshot, len(r.Bookmakers))
		for bookmaker, triple := range r.Bookmakers {
			appendOps[bookmaker] = OddsSnapshot{Timestamp: now, Odds: triple}
		}
		ops = append(ops, UpsertOp{Identity: r.Identity(), Append: appendOps})
	}
	return ops
}

// Ingestor aplica os lotes do scraper no store.
// Falhas de escrita são logadas e engolidas: o próximo ciclo agendado tenta de novo.
type Ingestor struct {
	store MatchWriter
	log   *zap.Logger
	now   func() time.Time

	OnMerged func(matches int) // métricas
	OnPurged func(deleted int64)
	OnError  func(stage string)
}

func NewIngestor(store MatchWriter, log *zap.Logger) *Ingestor {
	return &Ingestor{store: store, log: log, now: time.Now}
}

// MergeSnapshots faz upsert das partidas e anexa as odds novas em um único lote.
func (i *Ingestor) MergeSnapshots(ctx context.Context, raw []RawMatchSnapshot) {
	if len(raw) == 0 {
		i.log.Info("no relevant match data found")
		return
	}

	ops := BuildUpsertOps(raw, i.now())
	if err := i.store.BulkUpsert(ctx, ops); err != nil {
		i.log.Error("error upserting matches", zap.Int("matches", len(ops)), zap.Error(err))
		if i.OnError != nil {
			i.OnError("upsert")
		}
		return
	}

	i.log.Info("updating database finished successfully", zap.Int("matches", len(ops)))
	if i.OnMerged != nil {
		i.OnMerged(len(ops))
	}
}

// PurgeAll remove todas as partidas (limpeza no fim do dia).
func (i *Ingestor) PurgeAll(ctx context.Context) {
	deleted, err := i.store.DeleteAll(ctx)
	if err != nil {
		i.log.Error("error removing past matches", zap.Error(err))
		if i.OnError != nil {
			i.OnError("purge")
		}
		return
	}

	i.log.Info("past matches removed", zap.Int64("deleted", deleted))
	if i.OnPurged != nil {
		i.OnPurged(deleted)
	}
}
