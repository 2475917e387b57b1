// Package facet computes the faceted NLP summary over a filtered set of speeches.
package facet

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/score"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
	"github.com/kailas-cloud/speechagg/internal/metrics"
)

// DefaultTopEntities caps the named-entities-by-text facet.
const DefaultTopEntities = 100

// Query selects the speeches to summarise.
type Query struct {
	Filter domspeech.Filter
	// TopicCounts adds the per-label annotation count to the topics facet.
	TopicCounts bool
}

// Summary is the outcome of one aggregation.
type Summary struct {
	Facets      aggregation.Facets
	SpeechCount int
}

// Aggregator evaluates the five facets over one streamed pass of the corpus.
type Aggregator struct {
	corpus      Corpus
	logger      *zap.Logger
	topEntities int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTopEntities sets how many (type, text) entities are kept.
func WithTopEntities(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topEntities = n
		}
	}
}

// New creates an Aggregator.
func New(corpus Corpus, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{corpus: corpus, logger: logger, topEntities: DefaultTopEntities}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate streams the speeches admitted by q.Filter once and feeds every page to
// each facet concurrently. The summary is returned only when all facets completed.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) (Summary, error) {
	facets := []accumulator{
		&topicsFacet{withCounts: q.TopicCounts, onExcluded: a.excluded},
		&entityTypeFacet{counts: make(map[string]int)},
		&entityTextFacet{counts: make(map[aggregation.EntityKey]int), top: a.topEntities},
		&posFacet{counts: make(map[string]int)},
		&sentimentFacet{counts: make(map[float64]int)},
	}

	g, gctx := errgroup.WithContext(ctx)
	feeds := make([]chan []domspeech.Speech, len(facets))
	for i, acc := range facets {
		feed := make(chan []domspeech.Speech, 1)
		feeds[i] = feed
		g.Go(func() error {
			for page := range feed {
				acc.add(page)
			}
			return nil
		})
	}

	speechCount := 0
	streamErr := a.corpus.Stream(ctx, q.Filter, func(page []domspeech.Speech) error {
		speechCount += len(page)
		for _, feed := range feeds {
			select {
			case feed <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for _, feed := range feeds {
		close(feed)
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("facets %s: %w", q.Filter, err)
	}
	if streamErr != nil {
		return Summary{}, fmt.Errorf("stream %s: %w", q.Filter, streamErr)
	}

	var out aggregation.Facets
	for _, acc := range facets {
		acc.finish(&out)
	}
	out.Normalize()
	return Summary{Facets: out, SpeechCount: speechCount}, nil
}

func (a *Aggregator) excluded(sp *domspeech.Speech) score.ExcludedFunc {
	return func(label string, raw any, s score.Score) {
		metrics.ScoresExcludedTotal.Inc()
		a.logger.Warn("topic score excluded",
			zap.String("speech_id", sp.ID),
			zap.String("doc_id", sp.DocID),
			zap.String("label", label),
			zap.Any("raw", raw),
			zap.String("reason", s.Reason()),
		)
	}
}
