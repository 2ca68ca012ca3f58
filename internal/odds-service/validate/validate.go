// Package validate converte query strings da API em tipos do domínio,
// rejeitando entradas malformadas antes de chegarem ao banco.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/radieske/odds-tracker/internal/odds"
)

// Error é uma falha de validação; a API responde 400 com Message.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

const msgMatchesNotArray = "Matches parameter should be of an array type"

type betQuery struct {
	BetType string     `json:"betType" validate:"required,oneof=single ako"`
	Legs    []legQuery `json:"matches" validate:"required,dive"`
}

type legQuery struct {
	MatchID   string `json:"matchId" validate:"required"`
	EventType string `json:"eventType" validate:"required,oneof=home draw guest"`
	Bookmaker string `json:"bookmaker" validate:"required"`
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	val.RegisterStructValidation(betLegRules, betQuery{})
	return val
}

// betLegRules: single tem exatamente uma perna; ako tem pelo menos duas, com matchId distintos
func betLegRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(betQuery)
	if q.Legs == nil {
		return
	}
	switch odds.BetType(q.BetType) {
	case odds.BetSingle:
		if len(q.Legs) != 1 {
			sl.ReportError(q.Legs, "matches", "Legs", "len", "1")
		}
	case odds.BetAko:
		if len(q.Legs) < 2 {
			sl.ReportError(q.Legs, "matches", "Legs", "min", "2")
			return
		}
		seen := make(map[string]struct{}, len(q.Legs))
		for _, l := range q.Legs {
			if _, dup := seen[l.MatchID]; dup {
				sl.ReportError(q.Legs, "matches", "Legs", "uniquematch", "")
				return
			}
			seen[l.MatchID] = struct{}{}
		}
	}
}

// ParseListingQuery aceita apenas league e bookmaker, ambos opcionais.
func ParseListingQuery(q url.Values) (odds.ListingFilter, error) {
	if err := onlyKnown(q, "league", "bookmaker"); err != nil {
		return odds.ListingFilter{}, err
	}
	var f odds.ListingFilter
	for _, p := range []struct {
		name string
		dst  *string
	}{{"league", &f.League}, {"bookmaker", &f.Bookmaker}} {
		if !q.Has(p.name) {
			continue
		}
		val := q.Get(p.name)
		if val == "" {
			return odds.ListingFilter{}, invalid("%q is not allowed to be empty", p.name)
		}
		*p.dst = val
	}
	return f, nil
}

// ParseBetQuery valida betType e matches. matches chega como um array JSON
// url-encoded de {matchId, bookmaker, eventType}.
func ParseBetQuery(q url.Values) (odds.BetRequest, error) {
	if err := onlyKnown(q, "betType", "matches"); err != nil {
		return odds.BetRequest{}, err
	}

	in := betQuery{BetType: q.Get("betType")}
	if raw := q.Get("matches"); raw != "" {
		legs, err := decodeLegs(raw)
		if err != nil {
			return odds.BetRequest{}, err
		}
		in.Legs = legs
	}

	if err := v.Struct(in); err != nil {
		return odds.BetRequest{}, translate(err)
	}

	req := odds.BetRequest{BetType: odds.BetType(in.BetType), Legs: make([]odds.BetLeg, len(in.Legs))}
	for i, l := range in.Legs {
		req.Legs[i] = odds.BetLeg{
			MatchID:   l.MatchID,
			Bookmaker: l.Bookmaker,
			EventType: odds.EventType(l.EventType),
		}
	}
	return req, nil
}

func decodeLegs(raw string) ([]legQuery, error) {
	// o cliente costuma mandar o JSON já codificado com encodeURIComponent
	if un, err := url.QueryUnescape(raw); err == nil {
		raw = un
	}

	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, invalid(msgMatchesNotArray)
	}
	items, ok := probe.([]any)
	if !ok {
		return nil, invalid(msgMatchesNotArray)
	}

	legs := make([]legQuery, len(items))
	for i, it := range items {
		b, _ := json.Marshal(it)
		if err := json.Unmarshal(b, &legs[i]); err != nil {
			return nil, invalid("\"matches[%d]\" must be an object with string fields", i)
		}
	}
	return legs, nil
}

func onlyKnown(q url.Values, allowed ...string) error {
	unknown := make([]string, 0)
	for k := range q {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return invalid("%q is not allowed", unknown[0])
}

// translate devolve só o primeiro erro, com a mensagem que o cliente já conhece
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("%s", err.Error())
	}
	fe := verrs[0]
	path := strings.TrimPrefix(fe.Namespace(), "betQuery.")

	switch {
	case path == "betType" && fe.Tag() == "required":
		return invalid("Bet type is required")
	case path == "betType":
		return invalid("Bet type must be either 'single' or 'ako'")
	case fe.Tag() == "uniquematch":
		return invalid("Match IDs must be unique for AKO bets")
	case fe.Tag() == "required":
		return invalid("%q is required", path)
	case fe.Tag() == "oneof":
		return invalid("%q must be one of [%s]", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	case fe.Tag() == "len":
		return invalid("%q must contain %s items", path, fe.Param())
	case fe.Tag() == "min":
		return invalid("%q must contain at least %s items", path, fe.Param())
	default:
		return invalid("%q is invalid", path)
	}
}
