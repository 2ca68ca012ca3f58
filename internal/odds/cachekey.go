package odds

import (
	"sort"
	"strings"
)

const allPlaceholder = "all"

// ListingKey gera a chave de cache da listagem: matches_{league}_{bookmaker},
// com "all" no lugar de filtro ausente.
func ListingKey(league, bookmaker string) string {
	return "matches_" + orAll(league) + "_" + orAll(bookmaker)
}

// BetKey gera a chave de cache de uma aposta. As pernas são ordenadas numa
// cópia, então qualquer permutação das mesmas pernas gera a mesma chave.
func BetKey(betType BetType, legs []BetLeg) string {
	sorted := make([]BetLeg, len(legs))
	copy(sorted, legs)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MatchID != b.MatchID {
			return a.MatchID < b.MatchID
		}
		if a.Bookmaker != b.Bookmaker {
			return a.Bookmaker < b.Bookmaker
		}
		return a.EventType < b.EventType
	})

	parts := make([]string, 0, len(sorted)+1)
	parts = append(parts, string(betType))
	for _, l := range sorted {
		parts = append(parts, l.MatchID+"_"+l.Bookmaker+"_"+string(l.EventType))
	}
	return strings.Join(parts, "_")
}

func orAll(s string) string {
	if s == "" {
		return allPlaceholder
	}
	return s
}
