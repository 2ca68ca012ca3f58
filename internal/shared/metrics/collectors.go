package metrics

import "github.com/prometheus/client_golang/prometheus"

// API agrupa as métricas do odds-service
type API struct {
	CacheLookups    *prometheus.CounterVec // route, result=hit|miss|error
	BetCalculations *prometheus.CounterVec // outcome=ok|not_found|bad_request|internal
}

func NewAPI(reg prometheus.Registerer) *API {
	m := &API{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_api_cache_lookups_total",
			Help: "consultas ao cache por rota e resultado",
		}, []string{"route", "result"}),
		BetCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_api_bet_calculations_total",
			Help: "cálculos de aposta por resultado",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.CacheLookups, m.BetCalculations)
	return m
}

// Ingest agrupa as métricas do odds-processor-worker
type Ingest struct {
	Consumed prometheus.Counter
	Matches  prometheus.Counter
	Purged   prometheus.Counter
	Errors   *prometheus.CounterVec // stage
}

func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_batches_consumed_total", Help: "lotes consumidos"}),
		Matches:  prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_matches_merged_total", Help: "partidas gravadas (upsert+append)"}),
		Purged:   prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_matches_purged_total", Help: "partidas removidas na limpeza diária"}),
		Errors:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_proc_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Matches, m.Purged, m.Errors)
	return m
}

// Scrape agrupa as métricas do odds-scraper
type Scrape struct {
	Cycles  prometheus.Counter
	Matches prometheus.Counter
	Errors  *prometheus.CounterVec // stage
}

func NewScrape(reg prometheus.Registerer) *Scrape {
	m := &Scrape{
		Cycles:  prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_scraper_cycles_total", Help: "ciclos de scraping executados"}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_scraper_matches_total", Help: "partidas coletadas"}),
		Errors:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_scraper_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Cycles, m.Matches, m.Errors)
	return m
}
