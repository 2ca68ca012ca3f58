package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Schema: uma linha por partida (identidade única) e o histórico de odds
// por casa em odds_snapshots, só com INSERT.
const Schema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	start_time TIMESTAMPTZ NOT NULL,
	host       TEXT NOT NULL,
	guest      TEXT NOT NULL,
	league     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (start_time, host, guest, league)
);

CREATE INDEX IF NOT EXISTS idx_matches_start_time ON matches(start_time);
CREATE INDEX IF NOT EXISTS idx_matches_league ON matches(league);

CREATE TABLE IF NOT EXISTS odds_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	match_id   TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	bookmaker  TEXT NOT NULL,
	taken_at   TIMESTAMPTZ NOT NULL,
	home_odd   DOUBLE PRECISION NOT NULL,
	draw_odd   DOUBLE PRECISION NOT NULL,
	guest_odd  DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_odds_snapshots_match_bk ON odds_snapshots(match_id, bookmaker, taken_at DESC);
`

// Migrate cria as tabelas se ainda não existirem
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
