// Package topicindex builds the inverted index from dominant topic to speech IDs.
package topicindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speechagg/internal/domain/score"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
	"github.com/kailas-cloud/speechagg/internal/metrics"
)

// DefaultProgressEvery is how many speeches pass between progress signals.
const DefaultProgressEvery = 1000

// Progress is a snapshot of an index build.
type Progress struct {
	Scanned int
	Indexed int
	Labels  int
}

// Builder streams the corpus once and resolves each speech's dominant topic.
type Builder struct {
	corpus        Corpus
	logger        *zap.Logger
	progressEvery int
	progress      chan<- Progress
}

// Option configures a Builder.
type Option func(*Builder)

// WithProgressEvery sets the progress interval in speeches.
func WithProgressEvery(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.progressEvery = n
		}
	}
}

// WithProgress delivers progress snapshots to ch. Sends never block; a full channel drops the snapshot.
func WithProgress(ch chan<- Progress) Option {
	return func(b *Builder) { b.progress = ch }
}

// New creates a Builder.
func New(corpus Corpus, logger *zap.Logger, opts ...Option) *Builder {
	b := &Builder{corpus: corpus, logger: logger, progressEvery: DefaultProgressEvery}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a fresh index over the whole corpus.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	idx := newIndex()
	var p Progress

	err := b.corpus.Stream(ctx, domspeech.All(), func(page []domspeech.Speech) error {
		for i := range page {
			s := &page[i]
			if label, ok := score.DominantTopic(s, b.excluded(s)); ok {
				idx.add(label, s.ID)
			}
			p.Scanned++
			if p.Scanned%b.progressEvery == 0 {
				p.Indexed, p.Labels = idx.Speeches(), idx.Len()
				b.report(p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build topic index: %w", err)
	}

	p.Indexed, p.Labels = idx.Speeches(), idx.Len()
	b.logger.Info("topic index built",
		zap.Int("scanned", p.Scanned),
		zap.Int("indexed", p.Indexed),
		zap.Int("labels", p.Labels),
	)
	return idx, nil
}

func (b *Builder) report(p Progress) {
	b.logger.Info("topic index progress", zap.Int("scanned", p.Scanned), zap.Int("labels", p.Labels))
	if b.progress == nil {
		return
	}
	select {
	case b.progress <- p:
	default:
	}
}

func (b *Builder) excluded(sp *domspeech.Speech) score.ExcludedFunc {
	return func(label string, raw any, s score.Score) {
		metrics.ScoresExcludedTotal.Inc()
		b.logger.Warn("topic score excluded",
			zap.String("speech_id", sp.ID),
			zap.String("doc_id", sp.DocID),
			zap.String("label", label),
			zap.Any("raw", raw),
			zap.String("reason", s.Reason()),
		)
	}
}
