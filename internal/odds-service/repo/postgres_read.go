package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/odds-tracker/internal/odds"
)

// ReadRepo é o lado de leitura do store de partidas.
// Cada partida é uma linha em matches; cada snapshot de casa é uma linha em odds_snapshots.
type ReadRepo struct {
	db *sql.DB
}

var (
	_ odds.MatchReader = (*ReadRepo)(nil)
	_ odds.MatchLister = (*ReadRepo)(nil)
)

// NewReadRepo retorna uma instância do repositório de leitura
func NewReadRepo(db *sql.DB) *ReadRepo {
	return &ReadRepo{db: db}
}

const qFindByIDs = `
	SELECT m.id, s.bookmaker, s.taken_at, s.home_odd, s.draw_odd, s.guest_odd
	FROM matches m
	LEFT JOIN odds_snapshots s ON s.match_id = m.id
	WHERE m.id = ANY($1)
	ORDER BY m.id, s.id`

// FindByIDs carrega só id e bookmakers das partidas pedidas, em uma consulta
func (r *ReadRepo) FindByIDs(ctx context.Context, ids []string) ([]odds.Match, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, qFindByIDs, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find matches by ids: %w", err)
	}
	defer rows.Close()

	c := newCollector()
	for rows.Next() {
		var (
			id string
			s  snapshotRow
		)
		if err := rows.Scan(&id, &s.bookmaker, &s.takenAt, &s.home, &s.draw, &s.guest); err != nil {
			return nil, err
		}
		c.add(odds.Match{ID: id}, s)
	}
	return c.matches(), rows.Err()
}

const qSelectMatches = `
	SELECT m.id, m.start_time, m.host, m.guest, m.league,
	       s.bookmaker, s.taken_at, s.home_odd, s.draw_odd, s.guest_odd
	FROM matches m`

const qFindUpcoming = qSelectMatches + `
	LEFT JOIN odds_snapshots s ON s.match_id = m.id AND ($4::text = '' OR s.bookmaker = $4)
	WHERE m.start_time >= $1 AND m.start_time < $2 AND ($3::text = '' OR m.league = $3)
	ORDER BY m.start_time, m.id, s.id`

const qFindAll = qSelectMatches + `
	LEFT JOIN odds_snapshots s ON s.match_id = m.id
	ORDER BY m.start_time, m.id, s.id`

// FindUpcoming lista partidas na janela [From, To); com Bookmaker, só o
// histórico daquela casa é retornado
func (r *ReadRepo) FindUpcoming(ctx context.Context, q odds.ListingQuery) ([]odds.Match, error) {
	rows, err := r.db.QueryContext(ctx, qFindUpcoming, q.From, q.To, q.League, q.Bookmaker)
	if err != nil {
		return nil, fmt.Errorf("find upcoming matches: %w", err)
	}
	return scanMatches(rows)
}

func (r *ReadRepo) FindAll(ctx context.Context) ([]odds.Match, error) {
	rows, err := r.db.QueryContext(ctx, qFindAll)
	if err != nil {
		return nil, fmt.Errorf("find all matches: %w", err)
	}
	return scanMatches(rows)
}

func scanMatches(rows *sql.Rows) ([]odds.Match, error) {
	defer rows.Close()

	c := newCollector()
	for rows.Next() {
		var (
			m odds.Match
			s snapshotRow
		)
		if err := rows.Scan(&m.ID, &m.StartTime, &m.Host, &m.Guest, &m.League,
			&s.bookmaker, &s.takenAt, &s.home, &s.draw, &s.guest); err != nil {
			return nil, err
		}
		c.add(m, s)
	}
	return c.matches(), rows.Err()
}

// snapshotRow vem de um LEFT JOIN: partidas sem odds trazem colunas nulas
type snapshotRow struct {
	bookmaker sql.NullString
	takenAt   sql.NullTime
	home      sql.NullFloat64
	draw      sql.NullFloat64
	guest     sql.NullFloat64
}

// collector agrupa as linhas do join por partida, mantendo a ordem da consulta
type collector struct {
	order []string
	byID  map[string]*odds.Match
}

func newCollector() *collector {
	return &collector{byID: make(map[string]*odds.Match)}
}

func (c *collector) add(m odds.Match, s snapshotRow) {
	cur, ok := c.byID[m.ID]
	if !ok {
		m.Bookmakers = make(map[string]odds.OddsHistory)
		cur = &m
		c.byID[m.ID] = cur
		c.order = append(c.order, m.ID)
	}
	if !s.bookmaker.Valid {
		return
	}
	cur.Bookmakers[s.bookmaker.String] = append(cur.Bookmakers[s.bookmaker.String], odds.OddsSnapshot{
		Timestamp: s.takenAt.Time,
		Odds:      odds.Triple{s.home.Float64, s.draw.Float64, s.guest.Float64},
	})
}

func (c *collector) matches() []odds.Match {
	out := make([]odds.Match, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}
