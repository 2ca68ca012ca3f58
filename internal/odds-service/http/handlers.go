package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/internal/odds-service/validate"
)

const msgInternal = "Internal server error"

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError mapeia erros de validação e do domínio para status HTTP.
// Falhas internas não vazam a causa para o cliente.
func (a *API) writeError(w http.ResponseWriter, route string, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		writeMessage(w, http.StatusBadRequest, verr.Message)
		return
	}

	var derr *odds.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case odds.KindNotFound:
			writeMessage(w, http.StatusNotFound, derr.Message)
			return
		case odds.KindBadRequest:
			writeMessage(w, http.StatusBadRequest, derr.Message)
			return
		}
	}

	a.Log.Error("request failed", zap.String("route", route), zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}

// listMatches retorna as partidas de hoje, preferencialmente do cache
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	const route = "matches"

	f, err := validate.ParseListingQuery(r.URL.Query())
	if err != nil {
		a.writeError(w, route, err)
		return
	}

	key := odds.ListingKey(f.League, f.Bookmaker)
	var cached []odds.Match
	if a.cacheGet(r, route, key, &cached) {
		a.Log.Info("Returning cached matches data", zap.String("key", key))
		writeJSON(w, http.StatusOK, map[string]any{"data": cached})
		return
	}

	matches, err := a.Lister.Upcoming(r.Context(), f)
	if err != nil {
		a.writeError(w, route, err)
		return
	}
	if matches == nil {
		matches = []odds.Match{}
	}

	a.cacheSet(r, route, key, matches)
	writeJSON(w, http.StatusOK, map[string]any{"data": matches})
}

// listAllMatches retorna todas as partidas gravadas, sem cache
func (a *API) listAllMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := a.Lister.All(r.Context())
	if err != nil {
		a.writeError(w, "matches_all", err)
		return
	}
	if matches == nil {
		matches = []odds.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": matches})
}

// calculateBet resolve a odd mais recente de cada perna e devolve o produto
func (a *API) calculateBet(w http.ResponseWriter, r *http.Request) {
	const route = "calculate_bet"

	req, err := validate.ParseBetQuery(r.URL.Query())
	if err != nil {
		a.countBet("bad_request")
		a.writeError(w, route, err)
		return
	}

	key := odds.BetKey(req.BetType, req.Legs)
	var cached float64
	if a.cacheGet(r, route, key, &cached) {
		a.Log.Info("Returning cached bet calculation data", zap.String("key", key))
		a.countBet("ok")
		writeJSON(w, http.StatusOK, map[string]float64{"bet": cached})
		return
	}

	oddsByMatch, err := a.Resolver.ResolveLatestOdds(r.Context(), req.Legs)
	if err != nil {
		a.countBet(odds.KindOf(err).String())
		a.writeError(w, route, err)
		return
	}

	bet := odds.CumulateOdds(oddsByMatch)
	a.cacheSet(r, route, key, bet)
	a.countBet("ok")
	writeJSON(w, http.StatusOK, map[string]float64{"bet": bet})
}

// cacheGet trata erro de cache como miss: o cache é só uma otimização
func (a *API) cacheGet(r *http.Request, route, key string, dst any) bool {
	if a.Cache == nil {
		return false
	}
	ok, err := a.Cache.Get(r.Context(), key, dst)
	switch {
	case err != nil:
		a.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		a.countLookup(route, "error")
		return false
	case ok:
		a.countLookup(route, "hit")
		return true
	default:
		a.countLookup(route, "miss")
		return false
	}
}

func (a *API) cacheSet(r *http.Request, route, key string, v any) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Set(r.Context(), key, v); err != nil {
		a.Log.Warn("cache set failed", zap.String("route", route), zap.String("key", key), zap.Error(err))
	}
}

func (a *API) countLookup(route, result string) {
	if a.Metrics != nil {
		a.Metrics.CacheLookups.WithLabelValues(route, result).Inc()
	}
}

func (a *API) countBet(outcome string) {
	if a.Metrics != nil {
		a.Metrics.BetCalculations.WithLabelValues(outcome).Inc()
	}
}
