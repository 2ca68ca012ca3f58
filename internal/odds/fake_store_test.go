package odds

import (
	"context"
	"errors"
	"fmt"
)

// memStore imita o store de documentos: upsert pela Identity e append por casa.
type memStore struct {
	matches   []Match
	findCalls int
	findIDs   []string
	upserts   int
	err       error
}

func (s *memStore) FindByIDs(_ context.Context, ids []string) ([]Match, error) {
	s.findCalls++
	s.findIDs = append([]string(nil), ids...)
	if s.err != nil {
		return nil, s.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Match
	for _, m := range s.matches {
		if want[m.ID] {
			out = append(out, Match{ID: m.ID, Bookmakers: m.Bookmakers})
		}
	}
	return out, nil
}

func (s *memStore) FindUpcoming(_ context.Context, q ListingQuery) ([]Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Match
	for _, m := range s.matches {
		if m.StartTime.Before(q.From) || !m.StartTime.Before(q.To) {
			continue
		}
		if q.League != "" && m.League != q.League {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) FindAll(_ context.Context) ([]Match, error) {
	return s.matches, s.err
}

func (s *memStore) BulkUpsert(_ context.Context, ops []UpsertOp) error {
	s.upserts++
	if s.err != nil {
		return s.err
	}
	for _, op := range ops {
		idx := -1
		for i, m := range s.matches {
			if m.Identity() == op.Identity {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.matches = append(s.matches, Match{
				ID:         fmt.Sprintf("m%d", len(s.matches)+1),
				StartTime:  op.Identity.StartTime,
				Host:       op.Identity.Host,
				Guest:      op.Identity.Guest,
				League:     op.Identity.League,
				Bookmakers: map[string]OddsHistory{},
			})
			idx = len(s.matches) - 1
		}
		for bk, snap := range op.Append {
			s.matches[idx].Bookmakers[bk] = append(s.matches[idx].Bookmakers[bk], snap)
		}
	}
	return nil
}

func (s *memStore) DeleteAll(_ context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := int64(len(s.matches))
	s.matches = nil
	return n, nil
}

var errStoreDown = errors.New("connection refused")
