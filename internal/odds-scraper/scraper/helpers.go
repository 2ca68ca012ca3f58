package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/odds-tracker/internal/odds"
)

// nomes exibidos pelo Flashscore -> nomes usados como chave no histórico
var bookmakerNames = map[string]string{
	"eFortuna.pl": "eFortuna",
	"STS.pl":      "STS",
	"Betclic.pl":  "Betclic",
	"BETFAN":      "BETFAN",
	"LV BET":      "LV_BET",
	"Superbet.pl": "Superbet",
}

// MapBookmakerName normaliza o nome da casa; nomes desconhecidos passam intactos.
func MapBookmakerName(name string) string {
	if mapped, ok := bookmakerNames[name]; ok {
		return mapped
	}
	return name
}

// ExtractLeagueName transforma "England: Premier League - 2023" em
// "England_Premier_League". Sem ":" devolve a entrada.
func ExtractLeagueName(input string) string {
	parts := strings.Split(input, ":")
	if len(parts) < 2 {
		return input
	}

	country := strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(parts[1])
	season, _, _ := strings.Cut(rest, "-")
	league := strings.Join(strings.Fields(season), "_")

	if country == "" || league == "" {
		return input
	}
	return country + "_" + league
}

const startTimeLayout = "02.01.2006 15:04"

// ParseStartTime lê o horário no formato "dd.mm.yyyy HH:MM" no fuso loc.
func ParseStartTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(startTimeLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", s, err)
	}
	return t, nil
}

var errOddsCount = errors.New("expected exactly three odds")

// ParseOdds converte os três valores exibidos (casa, empate, visitante).
// Qualquer quantidade diferente de três é rejeitada.
func ParseOdds(values []string) (odds.Triple, error) {
	var t odds.Triple
	if len(values) != len(t) {
		return t, fmt.Errorf("%w, got %d", errOddsCount, len(values))
	}
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return odds.Triple{}, fmt.Errorf("parse odd %q: %w", v, err)
		}
		if f <= 0 {
			return odds.Triple{}, fmt.Errorf("odd must be positive, got %q", v)
		}
		t[i] = f
	}
	return t, nil
}

// matchPage é o que foi lido da página de uma partida, ainda sem tratamento
type matchPage struct {
	StartTime string
	Host      string
	Guest     string
	League    string
	Rows      []oddsRow
}

type oddsRow struct {
	Bookmaker string   `json:"bookmaker"`
	Values    []string `json:"values"`
}

// buildSnapshot valida a página lida. Retorna false quando nenhuma casa tem
// odds válidas; a partida é descartada nesse caso.
func buildSnapshot(p matchPage, loc *time.Location) (odds.RawMatchSnapshot, bool, error) {
	start, err := ParseStartTime(p.StartTime, loc)
	if err != nil {
		return odds.RawMatchSnapshot{}, false, err
	}

	host, guest := strings.TrimSpace(p.Host), strings.TrimSpace(p.Guest)
	if host == "" || guest == "" {
		return odds.RawMatchSnapshot{}, false, errors.New("missing participant names")
	}

	snap := odds.RawMatchSnapshot{
		StartTime:  start,
		Host:       host,
		Guest:      guest,
		Bookmakers: make(map[string]odds.Triple),
	}
	if league := strings.TrimSpace(p.League); league != "" {
		snap.League = ExtractLeagueName(league)
	}

	for _, row := range p.Rows {
		// a tabela termina na primeira linha sem odds
		if len(row.Values) == 0 {
			break
		}
		if row.Bookmaker == "" {
			continue
		}
		triple, err := ParseOdds(row.Values)
		if err != nil {
			continue
		}
		snap.Bookmakers[MapBookmakerName(row.Bookmaker)] = triple
	}

	if len(snap.Bookmakers) == 0 {
		return odds.RawMatchSnapshot{}, false, nil
	}
	return snap, true, nil
}

// resolveLinks torna os hrefs absolutos em relação a base e remove repetidos,
// mantendo a ordem em que apareceram.
func resolveLinks(base string, hrefs []string) []string {
	b, err := url.Parse(base)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		ref, err := url.Parse(strings.TrimSpace(h))
		if err != nil || h == "" {
			continue
		}
		abs := b.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
