package orchestrator

import (
	"context"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/run"
	"github.com/kailas-cloud/speechagg/internal/usecase/facet"
	"github.com/kailas-cloud/speechagg/internal/usecase/topicindex"
)

// KeySource enumerates the distinct grouping values present in the corpus.
type KeySource interface {
	DistinctSessions(ctx context.Context) ([]string, error)
	DistinctSpeakers(ctx context.Context) ([]string, error)
}

// TopicIndexer builds the label to speech-ID index for the topic dimension.
type TopicIndexer interface {
	Build(ctx context.Context) (*topicindex.Index, error)
}

// FacetAggregator computes the faceted summary for one key.
type FacetAggregator interface {
	Aggregate(ctx context.Context, q facet.Query) (facet.Summary, error)
}

// ResultSaver persists one summary, replacing any previous one for the same key.
type ResultSaver interface {
	Save(ctx context.Context, res *aggregation.Result) error
}

// ResultPruner deletes the stored summaries of d whose value is not in keep.
type ResultPruner interface {
	Prune(ctx context.Context, d aggregation.Dimension, keep []string) ([]string, error)
}

// StorePinger checks store connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EventPublisher announces a finished dimension.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, rep *run.DimensionReport) error
}
