package odds

import (
	"context"
	"sort"
)

// Resolver resolve a odd mais recente de cada perna de uma aposta.
// Não guarda estado mutável, pode ser usado por várias requisições em paralelo.
type Resolver struct {
	store MatchReader
}

func NewResolver(store MatchReader) *Resolver {
	return &Resolver{store: store}
}

// ResolveLatestOdds retorna matchId -> odd do resultado pedido, usando o
// snapshot mais recente da casa escolhida. Qualquer falha aborta tudo.
func (r *Resolver) ResolveLatestOdds(ctx context.Context, legs []BetLeg) (map[string]float64, error) {
	oddsByMatch := make(map[string]float64, len(legs))
	if len(legs) == 0 {
		return oddsByMatch, nil
	}

	ids := distinctMatchIDs(legs)
	matches, err := r.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if len(matches) != len(ids) {
		return nil, errMatchNotFound(len(legs) == 1)
	}

	for _, m := range matches {
		leg, ok := findLeg(legs, m.ID)
		if !ok {
			return nil, errOrphanMatch(m.ID)
		}

		latest, ok := LatestSnapshot(m.Bookmakers[leg.Bookmaker])
		if !ok {
			return nil, errBookmakerNotFound(leg.Bookmaker, m.ID)
		}

		idx, ok := leg.EventType.Index()
		if !ok {
			return nil, errInvalidEventType(m.ID)
		}

		oddsByMatch[m.ID] = latest.Odds[idx]
	}

	return oddsByMatch, nil
}

// LatestSnapshot ordena uma cópia do histórico por timestamp decrescente
// e devolve o primeiro. O slice recebido não é alterado.
func LatestSnapshot(history OddsHistory) (OddsSnapshot, bool) {
	if len(history) == 0 {
		return OddsSnapshot{}, false
	}
	sorted := make(OddsHistory, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted[0], true
}

func distinctMatchIDs(legs []BetLeg) []string {
	seen := make(map[string]struct{}, len(legs))
	ids := make([]string, 0, len(legs))
	for _, l := range legs {
		if _, ok := seen[l.MatchID]; ok {
			continue
		}
		seen[l.MatchID] = struct{}{}
		ids = append(ids, l.MatchID)
	}
	return ids
}

func findLeg(legs []BetLeg, matchID string) (BetLeg, bool) {
	for _, l := range legs {
		if l.MatchID == matchID {
			return l, true
		}
	}
	return BetLeg{}, false
}
