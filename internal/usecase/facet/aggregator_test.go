package facet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
)

// --- Mocks ---

type mockCorpus struct {
	speeches []domspeech.Speech
	pageSize int
	err      error
	filters  []domspeech.Filter
}

func (m *mockCorpus) Stream(_ context.Context, f domspeech.Filter, fn func([]domspeech.Speech) error) error {
	m.filters = append(m.filters, f)
	size := m.pageSize
	if size <= 0 {
		size = len(m.speeches) + 1
	}
	for start := 0; start < len(m.speeches); start += size {
		end := min(start+size, len(m.speeches))
		var page []domspeech.Speech
		for _, s := range m.speeches[start:end] {
			if f.Matches(&s) {
				page = append(page, s)
			}
		}
		if len(page) == 0 {
			continue
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return m.err
}

func pos(tag string) *string { return &tag }

func analysed(id, session string, nlp domspeech.Annotations) domspeech.Speech {
	return domspeech.Speech{
		ID:       id,
		Speaker:  "Anna",
		Protocol: domspeech.Protocol{Index: session},
		NLP:      &nlp,
	}
}

// --- Tests ---

func TestAggregate_SentimentHistogram(t *testing.T) {
	corpus := &mockCorpus{speeches: []domspeech.Speech{
		analysed("1", "19/1", domspeech.Annotations{Sentiment: []any{0.10, -0.07, 0.07, 0.07}}),
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []aggregation.SentimentBucket{{Value: -0.07, Count: 1}, {Value: 0.07, Count: 2}}
	got := sum.Facets.Sentiment
	if len(got) != len(want) {
		t.Fatalf("Sentiment = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sentiment[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAggregate_AllFacets(t *testing.T) {
	corpus := &mockCorpus{pageSize: 1, speeches: []domspeech.Speech{
		analysed("1", "19/1", domspeech.Annotations{
			Topics: []domspeech.Topic{{Label: "Energy", RawScore: 0.8}, {Label: "Tax", RawScore: "0.2"}},
			Entities: []domspeech.NamedEntity{
				{Type: "PER", Text: "Merkel"}, {Type: "LOC", Text: "Berlin"}, {Type: "PER", Text: "Merkel"},
			},
			Tokens: []domspeech.Token{
				{Text: "Die", POS: pos("ART")}, {Text: "Energie", POS: pos("NN")}, {Text: "?", POS: nil},
			},
		}),
		analysed("2", "19/1", domspeech.Annotations{
			Topics:   []domspeech.Topic{{Label: "Energy", RawScore: 0.4}, {Label: "Tax", RawScore: "n/a"}},
			Entities: []domspeech.NamedEntity{{Type: "LOC", Text: "Bonn"}},
			Tokens:   []domspeech.Token{{Text: "Steuer", POS: pos("NN")}},
		}),
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.SpeechCount != 2 {
		t.Errorf("SpeechCount = %d, want 2", sum.SpeechCount)
	}

	f := sum.Facets
	if len(f.Topics) != 2 {
		t.Fatalf("Topics = %+v", f.Topics)
	}
	energy := f.Topics[0]
	if energy.Label != "Energy" || math.Abs(energy.TotalScore-1.2) > 1e-9 || math.Abs(energy.AverageScore-0.6) > 1e-9 {
		t.Errorf("Topics[0] = %+v", energy)
	}
	if energy.Count != 0 {
		t.Errorf("Count must stay unset outside the topic dimension, got %d", energy.Count)
	}
	if tax := f.Topics[1]; tax.Label != "Tax" || tax.AverageScore != 0.2 {
		t.Errorf("Topics[1] = %+v, want Tax averaging only its parsed score", tax)
	}

	wantTypes := []aggregation.TypeCount{{Type: "LOC", Count: 2}, {Type: "PER", Count: 2}}
	for i, w := range wantTypes {
		if f.NamedEntitiesByType[i] != w {
			t.Errorf("NamedEntitiesByType[%d] = %+v, want %+v", i, f.NamedEntitiesByType[i], w)
		}
	}

	if top := f.NamedEntitiesByText[0]; top.Entity.Text != "Merkel" || top.Count != 2 {
		t.Errorf("NamedEntitiesByText[0] = %+v", top)
	}
	if len(f.NamedEntitiesByText) != 3 {
		t.Errorf("NamedEntitiesByText has %d entries, want 3", len(f.NamedEntitiesByText))
	}

	wantPOS := []aggregation.TagCount{{Tag: "NN", Count: 2}, {Tag: "ART", Count: 1}}
	if len(f.POSTags) != len(wantPOS) {
		t.Fatalf("POSTags = %+v", f.POSTags)
	}
	for i, w := range wantPOS {
		if f.POSTags[i] != w {
			t.Errorf("POSTags[%d] = %+v, want %+v", i, f.POSTags[i], w)
		}
	}
}

func TestAggregate_TopicCounts(t *testing.T) {
	corpus := &mockCorpus{speeches: []domspeech.Speech{
		analysed("1", "", domspeech.Annotations{Topics: []domspeech.Topic{{Label: "A", RawScore: 0.5}}}),
		analysed("2", "", domspeech.Annotations{Topics: []domspeech.Topic{{Label: "A", RawScore: 0.3}, {Label: "B", RawScore: 0.1}}}),
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{
		Filter:      domspeech.ByIDs([]string{"1", "2"}),
		TopicCounts: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Facets.Topics[0].Label != "A" || sum.Facets.Topics[0].Count != 2 {
		t.Errorf("Topics[0] = %+v, want A with count 2", sum.Facets.Topics[0])
	}
	if sum.Facets.Topics[1].Count != 1 {
		t.Errorf("Topics[1] = %+v, want count 1", sum.Facets.Topics[1])
	}
}

func TestAggregate_TopEntitiesCap(t *testing.T) {
	var entities []domspeech.NamedEntity
	for i := range 150 {
		for range i%3 + 1 {
			entities = append(entities, domspeech.NamedEntity{Type: "ORG", Text: fmt.Sprintf("org-%03d", i)})
		}
	}
	corpus := &mockCorpus{speeches: []domspeech.Speech{
		analysed("1", "", domspeech.Annotations{Entities: entities}),
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sum.Facets.NamedEntitiesByText
	if len(got) != DefaultTopEntities {
		t.Fatalf("len = %d, want %d", len(got), DefaultTopEntities)
	}
	if got[0].Count != 3 || got[0].Entity.Text != "org-002" {
		t.Errorf("first = %+v, want org-002 x3", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Count > got[i-1].Count {
			t.Fatalf("not sorted by count at %d: %+v", i, got[i-1:i+1])
		}
	}
	if sum.Facets.NamedEntitiesByType[0].Count != len(entities) {
		t.Errorf("by-type count must include entities beyond the cap")
	}

	small, err := New(corpus, zap.NewNop(), WithTopEntities(5)).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(small.Facets.NamedEntitiesByText) != 5 {
		t.Errorf("WithTopEntities(5) kept %d", len(small.Facets.NamedEntitiesByText))
	}
}

func TestAggregate_UnanalysedSpeechesYieldEmptyFacets(t *testing.T) {
	corpus := &mockCorpus{speeches: []domspeech.Speech{
		{ID: "1"},
		{ID: "2", FlatTopics: []domspeech.Topic{{Label: "Haushalt", RawScore: 0.9}}},
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.SpeechCount != 2 {
		t.Errorf("SpeechCount = %d, want 2", sum.SpeechCount)
	}

	raw, err := json.Marshal(sum.Facets)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"topics":[],"namedEntitiesByType":[],"namedEntitiesByText":[],"pos_tags":[],"sentiment":[]}`
	if string(raw) != want {
		t.Errorf("facets = %s, want %s", raw, want)
	}
}

func TestAggregate_FiltersBySession(t *testing.T) {
	corpus := &mockCorpus{speeches: []domspeech.Speech{
		analysed("1", "19/1", domspeech.Annotations{Entities: []domspeech.NamedEntity{{Type: "PER", Text: "A"}}}),
		analysed("2", "19/2", domspeech.Annotations{Entities: []domspeech.NamedEntity{{Type: "LOC", Text: "B"}}}),
	}}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.BySession("19/2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.SpeechCount != 1 || len(sum.Facets.NamedEntitiesByType) != 1 || sum.Facets.NamedEntitiesByType[0].Type != "LOC" {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	corpus := &mockCorpus{pageSize: 2, speeches: []domspeech.Speech{
		analysed("1", "", domspeech.Annotations{
			Topics:    []domspeech.Topic{{Label: "X", RawScore: 0.5}, {Label: "Y", RawScore: 0.5}},
			Entities:  []domspeech.NamedEntity{{Type: "PER", Text: "b"}, {Type: "PER", Text: "a"}},
			Sentiment: []any{0.0, 0.333, -0.1},
		}),
		analysed("2", "", domspeech.Annotations{Tokens: []domspeech.Token{{POS: pos("VV")}, {POS: pos("ADJ")}}}),
		analysed("3", "", domspeech.Annotations{Topics: []domspeech.Topic{{Label: "Z", RawScore: 0.5}}}),
	}}
	agg := New(corpus, zap.NewNop())

	first, err := agg.Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatal(err)
	}
	second, err := agg.Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("runs differ:\n%s\n%s", a, b)
	}
	if first.Facets.Topics[0].Label != "X" || first.Facets.Topics[2].Label != "Z" {
		t.Errorf("ties must break by label, got %+v", first.Facets.Topics)
	}
	if first.Facets.POSTags[0].Tag != "ADJ" {
		t.Errorf("ties must break by tag, got %+v", first.Facets.POSTags)
	}
}

func TestAggregate_StreamErrorDiscardsResult(t *testing.T) {
	corpus := &mockCorpus{
		speeches: []domspeech.Speech{analysed("1", "", domspeech.Annotations{})},
		err:      errors.New("connection reset"),
	}

	sum, err := New(corpus, zap.NewNop()).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err == nil {
		t.Fatal("expected error")
	}
	if sum.SpeechCount != 0 || sum.Facets.Topics != nil {
		t.Errorf("partial summary leaked: %+v", sum)
	}
}

func TestAggregate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	corpus := &mockCorpus{speeches: []domspeech.Speech{analysed("1", "", domspeech.Annotations{})}}

	// Feeds are buffered, so a single page may still be accepted; the call must not hang.
	_, _ = New(corpus, zap.NewNop()).Aggregate(ctx, Query{Filter: domspeech.All()})
}

func TestAggregate_LogsExcludedScores(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sp := analysed("s-1", "", domspeech.Annotations{Topics: []domspeech.Topic{{Label: "A", RawScore: "abc"}}})
	sp.DocID = "ID19001"
	corpus := &mockCorpus{speeches: []domspeech.Speech{sp}}

	sum, err := New(corpus, zap.New(core)).Aggregate(context.Background(), Query{Filter: domspeech.All()})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Facets.Topics) != 0 {
		t.Errorf("label with only unparseable scores must be dropped, got %+v", sum.Facets.Topics)
	}
	entries := logs.FilterMessage("topic score excluded").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	if f := entries[0].ContextMap(); f["speech_id"] != "s-1" || f["doc_id"] != "ID19001" {
		t.Errorf("unexpected fields: %v", f)
	}
}

func TestRoundSentiment(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.123, 0.12},
		{0.12, 0.12},
		{-0.5, -0.5},
		{-0.004, 0},
		{0.999, 1},
	}
	for _, tt := range tests {
		if got := roundSentiment(tt.in); got != tt.want {
			t.Errorf("roundSentiment(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
