package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/internal/shared/metrics"
)

// MatchLister lista partidas do dia e o acervo completo
type MatchLister interface {
	Upcoming(ctx context.Context, f odds.ListingFilter) ([]odds.Match, error)
	All(ctx context.Context) ([]odds.Match, error)
}

// OddsResolver devolve a odd mais recente de cada perna da aposta
type OddsResolver interface {
	ResolveLatestOdds(ctx context.Context, legs []odds.BetLeg) (map[string]float64, error)
}

// Cache guarda respostas prontas por chave, com TTL definido na implementação
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// API expõe os endpoints REST de consulta de partidas e cálculo de apostas
type API struct {
	Lister      MatchLister
	Resolver    OddsResolver
	Cache       Cache
	Log         *zap.Logger
	Metrics     *metrics.API // opcional
	CORSOrigins []string
}

// Router retorna o roteador HTTP com middlewares e rotas
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(a.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	origins := a.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/matches", func(r chi.Router) {
		r.Get("/", a.listMatches)               // partidas pendentes de hoje
		r.Get("/all", a.listAllMatches)         // todas as partidas gravadas
		r.Get("/calculate-bet", a.calculateBet) // odd acumulada de uma aposta
	})
	return r
}

// requestLogger registra cada requisição via zap
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("incoming request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
