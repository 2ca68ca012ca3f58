package odds

import (
	"context"
	"time"
)

// MatchReader é o acesso de leitura usado pela resolução de odds.
// FindByIDs devolve apenas ID e Bookmakers; ids inexistentes são omitidos.
type MatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]Match, error)
}

// ListingQuery filtra partidas por janela de início e, opcionalmente, liga.
// Bookmaker restringe o histórico retornado a uma única casa.
type ListingQuery struct {
	From      time.Time
	To        time.Time
	League    string
	Bookmaker string
}

type MatchLister interface {
	FindUpcoming(ctx context.Context, q ListingQuery) ([]Match, error)
	FindAll(ctx context.Context) ([]Match, error)
}

// UpsertOp insere a partida se a Identity não existir e anexa um snapshot
// por casa. Histórico existente nunca é reescrito.
type UpsertOp struct {
	Identity Identity
	Append   map[string]OddsSnapshot
}

type MatchWriter interface {
	BulkUpsert(ctx context.Context, ops []UpsertOp) error
	DeleteAll(ctx context.Context) (int64, error)
}
