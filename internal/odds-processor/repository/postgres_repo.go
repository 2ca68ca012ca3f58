package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/radieske/odds-tracker/internal/odds"
)

// PostgresRepo implementa a escrita de partidas e snapshots de odds no Postgres
type PostgresRepo struct {
	DB    *sql.DB
	newID func() string
}

var _ odds.MatchWriter = (*PostgresRepo)(nil)

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db, newID: uuid.NewString}
}

const qUpsertMatch = `
	INSERT INTO matches (id, start_time, host, guest, league)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (start_time, host, guest, league) DO UPDATE SET league = EXCLUDED.league
	RETURNING id`

const qInsertSnapshot = `
	INSERT INTO odds_snapshots (match_id, bookmaker, taken_at, home_odd, draw_odd, guest_odd)
	VALUES ($1, $2, $3, $4, $5, $6)`

// BulkUpsert aplica todas as operações em uma transação: insere a partida se a
// identidade ainda não existe (o UPDATE no-op só serve para o RETURNING devolver
// o id existente) e anexa um snapshot por casa
func (r *PostgresRepo) BulkUpsert(ctx context.Context, ops []odds.UpsertOp) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range ops {
		var id string
		err := tx.QueryRowContext(ctx, qUpsertMatch,
			r.newID(), op.Identity.StartTime, op.Identity.Host, op.Identity.Guest, op.Identity.League,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert match %s x %s: %w", op.Identity.Host, op.Identity.Guest, err)
		}

		for _, bk := range sortedBookmakers(op.Append) {
			snap := op.Append[bk]
			if _, err := tx.ExecContext(ctx, qInsertSnapshot,
				id, bk, snap.Timestamp, snap.Odds[0], snap.Odds[1], snap.Odds[2],
			); err != nil {
				return fmt.Errorf("append odds %s for match %s: %w", bk, id, err)
			}
		}
	}

	return tx.Commit()
}

// DeleteAll remove todas as partidas; os snapshots saem por ON DELETE CASCADE
func (r *PostgresRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM matches`)
	if err != nil {
		return 0, fmt.Errorf("delete matches: %w", err)
	}
	return res.RowsAffected()
}

func sortedBookmakers(m map[string]odds.OddsSnapshot) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
