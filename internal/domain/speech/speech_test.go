package speech

import "testing"

func strPtr(s string) *string { return &s }

func TestTopicAnnotations_PrefersFlatPath(t *testing.T) {
	s := Speech{
		FlatTopics: []Topic{{Label: "flat", RawScore: 0.1}},
		NLP:        &Annotations{Topics: []Topic{{Label: "nested", RawScore: 0.9}}},
	}
	got := s.TopicAnnotations()
	if len(got) != 1 || got[0].Label != "flat" {
		t.Errorf("TopicAnnotations() = %+v, want flat", got)
	}
}

func TestTopicAnnotations_FallsBackToNested(t *testing.T) {
	s := Speech{NLP: &Annotations{Topics: []Topic{{Label: "nested", RawScore: 0.9}}}}
	got := s.TopicAnnotations()
	if len(got) != 1 || got[0].Label != "nested" {
		t.Errorf("TopicAnnotations() = %+v, want nested", got)
	}
}

func TestTopicAnnotations_FlatPathWithoutBundleIgnored(t *testing.T) {
	s := Speech{ID: "1", FlatTopics: []Topic{{Label: "flat", RawScore: 0.9}}}
	if got := s.TopicAnnotations(); got != nil {
		t.Errorf("TopicAnnotations() = %+v, want nil for an unanalysed speech", got)
	}
}

func TestNotAnalysed_YieldsNothing(t *testing.T) {
	s := Speech{ID: "1"}
	if s.Analysed() {
		t.Error("Analysed() = true")
	}
	if s.TopicAnnotations() != nil || s.Entities() != nil || s.Tokens() != nil || s.SentenceSentiments() != nil {
		t.Error("expected no annotations")
	}
}

func TestSentenceSentiments_DropsAggregate(t *testing.T) {
	s := Speech{NLP: &Annotations{Sentiment: []any{0.10, -0.07, 0.07, 0.07}}}
	got := s.SentenceSentiments()
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}
	if got[0] != -0.07 {
		t.Errorf("first sentence value = %v, want -0.07", got[0])
	}

	single := Speech{NLP: &Annotations{Sentiment: []any{0.5}}}
	if single.SentenceSentiments() != nil {
		t.Error("aggregate-only sentiment should yield nothing")
	}
}

func TestTokens(t *testing.T) {
	s := Speech{NLP: &Annotations{Tokens: []Token{{Text: "Haus", POS: strPtr("NN")}, {Text: "?"}}}}
	toks := s.Tokens()
	if len(toks) != 2 || *toks[0].POS != "NN" || toks[1].POS != nil {
		t.Errorf("unexpected tokens: %+v", toks)
	}
}
