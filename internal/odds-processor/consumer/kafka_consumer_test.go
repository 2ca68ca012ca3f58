package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/odds-tracker/internal/odds"
	"github.com/radieske/odds-tracker/pkg/contracts/events"
)

// scriptedReader devolve as respostas em ordem e depois cancela o contexto
type scriptedReader struct {
	steps  []func() (kafka.Message, error)
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.steps) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	return step()
}

type recordingMerger struct {
	batches [][]odds.RawMatchSnapshot
}

func (m *recordingMerger) MergeSnapshots(_ context.Context, raw []odds.RawMatchSnapshot) {
	m.batches = append(m.batches, raw)
}

func message(t *testing.T, b events.ScrapeBatch) func() (kafka.Message, error) {
	t.Helper()
	v, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	return func() (kafka.Message, error) { return kafka.Message{Key: []byte(b.BatchID), Value: v}, nil }
}

func TestRunMergesBatchesAndSkipsBadMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batch := events.ScrapeBatch{
		BatchID: "b-1",
		Matches: []odds.RawMatchSnapshot{{
			StartTime:  time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC),
			Host:       "A",
			Guest:      "B",
			Bookmakers: map[string]odds.Triple{"STS": {1.9, 3.2, 4.1}},
		}},
	}

	reader := &scriptedReader{cancel: cancel, steps: []func() (kafka.Message, error){
		func() (kafka.Message, error) { return kafka.Message{}, errors.New("broker not available") },
		func() (kafka.Message, error) { return kafka.Message{Value: []byte("{oops")}, nil },
		message(t, batch),
	}}
	merger := &recordingMerger{}

	var consumed int
	stages := map[string]int{}
	p := &Processor{
		Log:        zaptest.NewLogger(t),
		Reader:     reader,
		Merger:     merger,
		RetryDelay: time.Millisecond,
		OnConsumed: func() { consumed++ },
		OnError:    func(s string) { stages[s]++ },
	}

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(merger.batches) != 1 || merger.batches[0][0].Host != "A" {
		t.Fatalf("unexpected merges: %+v", merger.batches)
	}
	if consumed != 2 {
		t.Fatalf("want 2 consumed messages, got %d", consumed)
	}
	if stages["read"] != 1 || stages["decode"] != 1 {
		t.Fatalf("unexpected error stages: %v", stages)
	}
}
