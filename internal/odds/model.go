// Package odds concentra o domínio de partidas e odds: resolução da odd mais
// recente de cada perna, cálculo da odd acumulada, chaves de cache e a
// conversão dos snapshots do scraper em operações de escrita no store.
package odds

import "time"

// Triple é o conjunto de odds 1x2 de uma casa: [home, draw, guest].
type Triple [3]float64

// OddsSnapshot é uma coleta de odds de uma casa para uma partida.
type OddsSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Odds      Triple    `json:"odds"`
}

// OddsHistory só cresce (append) e não tem ordem cronológica garantida.
type OddsHistory []OddsSnapshot

// Match é o registro persistido de uma partida com o histórico por casa de aposta.
type Match struct {
	ID         string                 `json:"_id"`
	StartTime  time.Time              `json:"startTime,omitempty"`
	Host       string                 `json:"host,omitempty"`
	Guest      string                 `json:"guest,omitempty"`
	League     string                 `json:"league,omitempty"`
	Bookmakers map[string]OddsHistory `json:"bookmakers"`
}

// Identity é a tupla de igualdade exata usada no upsert da partida.
type Identity struct {
	StartTime time.Time
	Host      string
	Guest     string
	League    string
}

// Identity retorna a tupla de upsert da partida
func (m Match) Identity() Identity {
	return Identity{StartTime: m.StartTime, Host: m.Host, Guest: m.Guest, League: m.League}
}

type EventType string

const (
	EventHome  EventType = "home"
	EventDraw  EventType = "draw"
	EventGuest EventType = "guest"
)

var eventIndex = map[EventType]int{
	EventHome:  0,
	EventDraw:  1,
	EventGuest: 2,
}

// Index retorna a posição do resultado dentro do Triple
func (e EventType) Index() (int, bool) {
	i, ok := eventIndex[e]
	return i, ok
}

type BetType string

const (
	BetSingle BetType = "single"
	BetAko    BetType = "ako"
)

// BetLeg é uma seleção (partida + casa + resultado) dentro de uma aposta.
type BetLeg struct {
	MatchID   string    `json:"matchId"`
	Bookmaker string    `json:"bookmaker"`
	EventType EventType `json:"eventType"`
}

// BetRequest chega já validado: single tem 1 perna, ako tem 2+ com matchId distintos.
type BetRequest struct {
	BetType BetType  `json:"betType"`
	Legs    []BetLeg `json:"matches"`
}

// RawMatchSnapshot é o que o scraper produz para uma partida em um ciclo.
type RawMatchSnapshot struct {
	StartTime  time.Time         `json:"startTime"`
	Host       string            `json:"host"`
	Guest      string            `json:"guest"`
	League     string            `json:"league"`
	Bookmakers map[string]Triple `json:"bookmakers"`
}

func (r RawMatchSnapshot) Identity() Identity {
	return Identity{StartTime: r.StartTime, Host: r.Host, Guest: r.Guest, League: r.League}
}
