package odds

import (
	"context"
	"time"
)

// ListingFilter são os filtros opcionais da listagem de partidas do dia.
type ListingFilter struct {
	League    string `json:"league,omitempty"`
	Bookmaker string `json:"bookmaker,omitempty"`
}

// TodayWindow devolve [now, 23:59:59.999 do dia local de now).
func TodayWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), now.Location())
	return now, end
}

// Lister consulta as partidas pendentes do dia.
type Lister struct {
	store MatchLister
	now   func() time.Time
}

func NewLister(store MatchLister) *Lister {
	return &Lister{store: store, now: time.Now}
}

// Upcoming lista as partidas que ainda começam hoje, opcionalmente filtradas
// por liga; com Bookmaker, o histórico vem só daquela casa.
func (l *Lister) Upcoming(ctx context.Context, f ListingFilter) ([]Match, error) {
	from, to := TodayWindow(l.now())
	return l.store.FindUpcoming(ctx, ListingQuery{
		From:      from,
		To:        to,
		League:    f.League,
		Bookmaker: f.Bookmaker,
	})
}

func (l *Lister) All(ctx context.Context) ([]Match, error) {
	return l.store.FindAll(ctx)
}
