package facet

import (
	"cmp"
	"math"
	"slices"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/score"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
)

// accumulator folds pages of speeches into one facet. Each instance is owned by a single goroutine.
type accumulator interface {
	add(page []domspeech.Speech)
	finish(f *aggregation.Facets)
}

// topicsFacet ranks labels by mean score over every parsed annotation.
type topicsFacet struct {
	acc        score.Accumulator
	withCounts bool
	onExcluded func(s *domspeech.Speech) score.ExcludedFunc
}

func (t *topicsFacet) add(page []domspeech.Speech) {
	for i := range page {
		s := &page[i]
		t.acc.AddTopics(s.TopicAnnotations(), t.onExcluded(s))
	}
}

func (t *topicsFacet) finish(f *aggregation.Facets) {
	stats := t.acc.Stats()
	out := make([]aggregation.TopicStat, 0, len(stats))
	for _, st := range stats {
		ts := aggregation.TopicStat{Label: st.Label, AverageScore: st.Mean(), TotalScore: st.Sum}
		if t.withCounts {
			ts.Count = st.Count
		}
		out = append(out, ts)
	}
	slices.SortFunc(out, func(a, b aggregation.TopicStat) int {
		if c := cmp.Compare(b.AverageScore, a.AverageScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	f.Topics = out
}

// entityTypeFacet counts named entities per type.
type entityTypeFacet struct {
	counts map[string]int
}

func (e *entityTypeFacet) add(page []domspeech.Speech) {
	for i := range page {
		for _, ne := range page[i].Entities() {
			e.counts[ne.Type]++
		}
	}
}

func (e *entityTypeFacet) finish(f *aggregation.Facets) {
	out := make([]aggregation.TypeCount, 0, len(e.counts))
	for typ, n := range e.counts {
		out = append(out, aggregation.TypeCount{Type: typ, Count: n})
	}
	slices.SortFunc(out, func(a, b aggregation.TypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	f.NamedEntitiesByType = out
}

// entityTextFacet counts (type, text) pairs and keeps the most frequent.
type entityTextFacet struct {
	counts map[aggregation.EntityKey]int
	top    int
}

func (e *entityTextFacet) add(page []domspeech.Speech) {
	for i := range page {
		for _, ne := range page[i].Entities() {
			e.counts[aggregation.EntityKey{Type: ne.Type, Text: ne.Text}]++
		}
	}
}

func (e *entityTextFacet) finish(f *aggregation.Facets) {
	out := make([]aggregation.EntityCount, 0, len(e.counts))
	for k, n := range e.counts {
		out = append(out, aggregation.EntityCount{Entity: k, Count: n})
	}
	slices.SortFunc(out, func(a, b aggregation.EntityCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Entity.Type, b.Entity.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity.Text, b.Entity.Text)
	})
	if len(out) > e.top {
		out = out[:e.top]
	}
	f.NamedEntitiesByText = out
}

// posFacet counts tokens per part-of-speech tag. Untagged tokens are skipped.
type posFacet struct {
	counts map[string]int
}

func (p *posFacet) add(page []domspeech.Speech) {
	for i := range page {
		for _, tok := range page[i].Tokens() {
			if tok.POS == nil {
				continue
			}
			p.counts[*tok.POS]++
		}
	}
}

func (p *posFacet) finish(f *aggregation.Facets) {
	out := make([]aggregation.TagCount, 0, len(p.counts))
	for tag, n := range p.counts {
		out = append(out, aggregation.TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(out, func(a, b aggregation.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	f.POSTags = out
}

// sentimentFacet builds a histogram of per-sentence sentiment rounded to 2 decimals.
type sentimentFacet struct {
	counts map[float64]int
}

func (s *sentimentFacet) add(page []domspeech.Speech) {
	for i := range page {
		for _, raw := range page[i].SentenceSentiments() {
			v, ok := score.Parse(raw).Value()
			if !ok {
				continue
			}
			s.counts[roundSentiment(v)]++
		}
	}
}

func (s *sentimentFacet) finish(f *aggregation.Facets) {
	out := make([]aggregation.SentimentBucket, 0, len(s.counts))
	for v, n := range s.counts {
		out = append(out, aggregation.SentimentBucket{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b aggregation.SentimentBucket) int {
		return cmp.Compare(a.Value, b.Value)
	})
	f.Sentiment = out
}

// roundSentiment rounds half to even at 2 decimals and folds -0 into 0.
func roundSentiment(v float64) float64 {
	r := math.RoundToEven(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
