package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/internal/shared/metrics"
)

type fakeLister struct {
	upcoming  []odds.Match
	all       []odds.Match
	err       error
	gotFilter odds.ListingFilter
	upcomingN int
}

func (f *fakeLister) Upcoming(_ context.Context, flt odds.ListingFilter) ([]odds.Match, error) {
	f.upcomingN++
	f.gotFilter = flt
	return f.upcoming, f.err
}

func (f *fakeLister) All(context.Context) ([]odds.Match, error) { return f.all, f.err }

type fakeResolver struct {
	odds  map[string]float64
	err   error
	calls int
}

func (f *fakeResolver) ResolveLatestOdds(context.Context, []odds.BetLeg) (map[string]float64, error) {
	f.calls++
	return f.odds, f.err
}

// memCache guarda JSON como o cache Redis faria
type memCache struct {
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

type fixture struct {
	api      *API
	lister   *fakeLister
	resolver *fakeResolver
	cache    *memCache
	metrics  *metrics.API
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		lister:   &fakeLister{},
		resolver: &fakeResolver{},
		cache:    newMemCache(),
		metrics:  metrics.NewAPI(prometheus.NewRegistry()),
	}
	f.api = &API{
		Lister:   f.lister,
		Resolver: f.resolver,
		Cache:    f.cache,
		Log:      zaptest.NewLogger(t),
		Metrics:  f.metrics,
	}
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.api.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

var sampleMatch = odds.Match{
	ID:        "m1",
	StartTime: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC),
	Host:      "Arsenal",
	Guest:     "Chelsea",
	League:    "England_Premier_League",
	Bookmakers: map[string]odds.OddsHistory{
		"STS": {{Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Odds: odds.Triple{2.1, 3.4, 3.3}}},
	},
}

func TestListMatchesFetchesAndCaches(t *testing.T) {
	f := newFixture(t)
	f.lister.upcoming = []odds.Match{sampleMatch}

	rec := f.get(t, "/api/matches?league=England_Premier_League&bookmaker=STS")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	body := decode[struct{ Data []odds.Match }](t, rec)
	if len(body.Data) != 1 || body.Data[0].ID != "m1" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if f.lister.gotFilter != (odds.ListingFilter{League: "England_Premier_League", Bookmaker: "STS"}) {
		t.Fatalf("filter not forwarded: %+v", f.lister.gotFilter)
	}
	if _, ok := f.cache.data["matches_England_Premier_League_STS"]; !ok {
		t.Fatalf("response was not cached: %v", f.cache.data)
	}
}

func TestListMatchesServesFromCache(t *testing.T) {
	f := newFixture(t)
	f.lister.upcoming = []odds.Match{sampleMatch}

	f.get(t, "/api/matches")
	rec := f.get(t, "/api/matches")

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if f.lister.upcomingN != 1 {
		t.Fatalf("second call should hit cache, store called %d times", f.lister.upcomingN)
	}
	if got := testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("matches", "hit")); got != 1 {
		t.Fatalf("want 1 cache hit, got %v", got)
	}
}

func TestListMatchesEmptyIsArray(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/matches")
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"data\":[]}\n" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body)
	}
}

func TestListMatchesRejectsUnknownParam(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/matches?page=2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if f.lister.upcomingN != 0 {
		t.Fatal("store should not be called on invalid query")
	}
}

func TestListMatchesStoreErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.lister.err = errors.New("connection refused")

	rec := f.get(t, "/api/matches")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "Internal server error" {
		t.Fatalf("cause leaked to client: %q", msg)
	}
}

func TestCacheErrorIsTreatedAsMiss(t *testing.T) {
	f := newFixture(t)
	f.cache.getErr = errors.New("redis down")
	f.lister.upcoming = []odds.Match{sampleMatch}

	rec := f.get(t, "/api/matches")
	if rec.Code != http.StatusOK || f.lister.upcomingN != 1 {
		t.Fatalf("want store fallback, got %d (calls=%d)", rec.Code, f.lister.upcomingN)
	}
}

func TestListAllMatches(t *testing.T) {
	f := newFixture(t)
	f.lister.all = []odds.Match{sampleMatch, {ID: "m2", Bookmakers: map[string]odds.OddsHistory{}}}

	rec := f.get(t, "/api/matches/all")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if body := decode[struct{ Data []odds.Match }](t, rec); len(body.Data) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func betURL(betType, matches string) string {
	q := url.Values{}
	q.Set("betType", betType)
	q.Set("matches", matches)
	return "/api/matches/calculate-bet?" + q.Encode()
}

const akoLegs = `[{"matchId":"m1","bookmaker":"STS","eventType":"home"},{"matchId":"m2","bookmaker":"STS","eventType":"draw"}]`

func TestCalculateBetMultipliesOdds(t *testing.T) {
	f := newFixture(t)
	f.resolver.odds = map[string]float64{"m1": 1.6, "m2": 3.0}

	rec := f.get(t, betURL("ako", akoLegs))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	if bet := decode[map[string]float64](t, rec)["bet"]; bet != 4.8 {
		t.Fatalf("want 4.8, got %v", bet)
	}
	if got := testutil.ToFloat64(f.metrics.BetCalculations.WithLabelValues("ok")); got != 1 {
		t.Fatalf("want 1 ok calculation, got %v", got)
	}
}

func TestCalculateBetCacheIgnoresLegOrder(t *testing.T) {
	f := newFixture(t)
	f.resolver.odds = map[string]float64{"m1": 1.6, "m2": 3.0}

	f.get(t, betURL("ako", akoLegs))
	reversed := `[{"matchId":"m2","bookmaker":"STS","eventType":"draw"},{"matchId":"m1","bookmaker":"STS","eventType":"home"}]`
	rec := f.get(t, betURL("ako", reversed))

	if rec.Code != http.StatusOK || f.resolver.calls != 1 {
		t.Fatalf("reordered legs should hit cache, status=%d resolver calls=%d", rec.Code, f.resolver.calls)
	}
}

func TestCalculateBetErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", &odds.Error{Kind: odds.KindNotFound, Message: "Match with given Id not found"}, http.StatusNotFound, "Match with given Id not found"},
		{"bad request", &odds.Error{Kind: odds.KindBadRequest, Message: "Invalid event type"}, http.StatusBadRequest, "Invalid event type"},
		{"internal", errors.New("db timeout"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.resolver.err = tc.err

			rec := f.get(t, betURL("single", `[{"matchId":"m1","bookmaker":"STS","eventType":"home"}]`))
			if rec.Code != tc.status {
				t.Fatalf("want %d, got %d", tc.status, rec.Code)
			}
			if msg := decode[map[string]string](t, rec)["message"]; msg != tc.msg {
				t.Fatalf("want %q, got %q", tc.msg, msg)
			}
			if len(f.cache.data) != 0 {
				t.Fatal("failed calculation must not be cached")
			}
		})
	}
}

func TestCalculateBetValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, betURL("ako", `[{"matchId":"m1","bookmaker":"STS","eventType":"home"},{"matchId":"m1","bookmaker":"STS","eventType":"draw"}]`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "Match IDs must be unique for AKO bets" {
		t.Fatalf("unexpected message %q", msg)
	}
	if f.resolver.calls != 0 {
		t.Fatal("resolver must not run on invalid input")
	}
}

func TestCORSHeaders(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matches/all", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.api.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("want wildcard origin, got %q", got)
	}
}
