// Package orchestrator drives the aggregation of every key of a grouping dimension.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speechagg/internal/domain"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/run"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
	"github.com/kailas-cloud/speechagg/internal/logger"
	"github.com/kailas-cloud/speechagg/internal/metrics"
	"github.com/kailas-cloud/speechagg/internal/usecase/facet"
	"github.com/kailas-cloud/speechagg/internal/worker"
)

// Defaults for the worker pool and persistence retries.
const (
	DefaultWorkers         = 4
	DefaultPersistAttempts = 3
	DefaultPersistBackoff  = 200 * time.Millisecond

	publishTimeout = 10 * time.Second
)

// task is one scheduled key with the speech filter that defines it.
type task struct {
	key   aggregation.Key
	query facet.Query
}

// Service runs dimensions key by key on a bounded worker pool.
type Service struct {
	keys    KeySource
	topics  TopicIndexer
	facets  FacetAggregator
	results ResultSaver
	store   StorePinger
	events  EventPublisher
	pruner  ResultPruner
	logger  *zap.Logger

	workers         int
	persistAttempts int
	persistBackoff  time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the number of keys processed concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPersistRetry sets how often a failed write is attempted and the initial backoff,
// which doubles after every failed attempt.
func WithPersistRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.persistAttempts = attempts
		}
		if backoff > 0 {
			s.persistBackoff = backoff
		}
	}
}

// WithEvents publishes a completion event after every dimension.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithPruneStale deletes, after a clean dimension run, the stored summaries of values
// that were not enumerated this time.
func WithPruneStale(p ResultPruner) Option {
	return func(s *Service) { s.pruner = p }
}

// WithClock overrides the time source used for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an orchestrator.
func New(
	keys KeySource, topics TopicIndexer, facets FacetAggregator,
	results ResultSaver, store StorePinger, l *zap.Logger, opts ...Option,
) *Service {
	s := &Service{
		keys: keys, topics: topics, facets: facets,
		results: results, store: store, logger: l,
		workers:         DefaultWorkers,
		persistAttempts: DefaultPersistAttempts,
		persistBackoff:  DefaultPersistBackoff,
		now:             time.Now,
		sleep:           sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes the given dimensions in order. Cancelling ctx stops scheduling new keys;
// keys already running finish. Once the store is unreachable or ctx is done, the
// remaining dimensions are reported as aborted without being started.
func (s *Service) Run(ctx context.Context, dims []aggregation.Dimension) *run.Report {
	rep := &run.Report{}
	var fatal error
	for _, d := range dims {
		if fatal == nil && ctx.Err() != nil {
			fatal = domain.ErrInterrupted
		}
		if fatal != nil {
			dr := run.NewDimensionReport(d)
			dr.Aborted = domain.NewDimensionAborted(string(d), fatal)
			dr.Finish(0)
			rep.Dimensions = append(rep.Dimensions, dr)
			continue
		}
		dr := s.RunDimension(ctx, d)
		if errors.Is(dr.Aborted, domain.ErrStoreUnavailable) {
			fatal = domain.ErrStoreUnavailable
		}
		rep.Dimensions = append(rep.Dimensions, dr)
	}
	return rep
}

// RunDimension enumerates the keys of d and aggregates each one.
func (s *Service) RunDimension(ctx context.Context, d aggregation.Dimension) *run.DimensionReport {
	start := time.Now()
	rep := run.NewDimensionReport(d)
	log := s.logger.With(zap.String("dimension", string(d)))

	tasks, err := s.plan(ctx, d)
	if err != nil {
		if down := s.storeDown(ctx); down != nil {
			err = fmt.Errorf("%w (%w)", down, err)
		}
		log.Error("key enumeration failed", zap.Error(err))
		rep.Aborted = domain.NewDimensionAborted(string(d), err)
		rep.Finish(time.Since(start))
		s.publish(ctx, rep)
		return rep
	}
	rep.Enumerated = len(tasks)
	metrics.DimensionKeys.WithLabelValues(string(d)).Set(float64(len(tasks)))
	log.Info("dimension started", zap.Int("keys", len(tasks)), zap.Int("workers", s.workers))

	schedCtx, stopScheduling := context.WithCancel(ctx)
	defer stopScheduling()

	var storeErr error
	pool := worker.NewPool[run.Outcome](s.workers)
	pool.OnResult(func(o run.Outcome) {
		rep.Record(o)
		metrics.KeysTotal.WithLabelValues(string(d), string(o.Status())).Inc()
		metrics.KeyDuration.WithLabelValues(string(d)).Observe(o.Duration().Seconds())
		if o.OK() || storeErr != nil {
			return
		}
		if down := s.storeDown(ctx); down != nil {
			storeErr = down
			log.Error("store unreachable, aborting dimension", zap.Error(down))
			stopScheduling()
		}
	})
	pool.Start(schedCtx)

	for _, t := range tasks {
		if !pool.Submit(worker.JobFunc[run.Outcome](func(jobCtx context.Context) run.Outcome {
			return s.processKey(jobCtx, t)
		})) {
			break
		}
	}
	pool.Wait()

	switch {
	case storeErr != nil:
		rep.Aborted = domain.NewDimensionAborted(string(d), storeErr)
	case ctx.Err() != nil && rep.Succeeded+rep.Failed < rep.Enumerated:
		rep.Aborted = domain.NewDimensionAborted(string(d), domain.ErrInterrupted)
	}
	if s.pruner != nil && rep.Aborted == nil && ctx.Err() == nil && rep.Succeeded == rep.Enumerated {
		s.prune(ctx, log, rep, tasks)
	}
	rep.Finish(time.Since(start))
	if rep.Abandoned > 0 {
		metrics.KeysTotal.WithLabelValues(string(d), "abandoned").Add(float64(rep.Abandoned))
	}

	fields := []zap.Field{
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("abandoned", rep.Abandoned),
		zap.Duration("duration", rep.Duration),
	}
	if rep.OK() {
		log.Info("dimension completed", fields...)
	} else {
		log.Warn("dimension completed with problems", append(fields, zap.Error(rep.Aborted))...)
	}
	s.publish(ctx, rep)
	return rep
}

// plan enumerates the keys of d in a stable order.
func (s *Service) plan(ctx context.Context, d aggregation.Dimension) ([]task, error) {
	switch d {
	case aggregation.DimensionAll:
		return []task{{
			key:   aggregation.NewKey(d, aggregation.AllValue),
			query: facet.Query{Filter: domspeech.All()},
		}}, nil

	case aggregation.DimensionSessions:
		values, err := s.keys.DistinctSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("distinct sessions: %w", err)
		}
		return tasksFor(d, values, domspeech.BySession), nil

	case aggregation.DimensionSpeakers:
		values, err := s.keys.DistinctSpeakers(ctx)
		if err != nil {
			return nil, fmt.Errorf("distinct speakers: %w", err)
		}
		return tasksFor(d, values, domspeech.BySpeaker), nil

	case aggregation.DimensionTopics:
		idx, err := s.topics.Build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build topic index: %w", err)
		}
		labels := idx.Labels()
		tasks := make([]task, 0, len(labels))
		for _, label := range labels {
			tasks = append(tasks, task{
				key:   aggregation.NewKey(d, label),
				query: facet.Query{Filter: domspeech.ByIDs(idx.IDs(label)), TopicCounts: true},
			})
		}
		return tasks, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDimension, d)
	}
}

func tasksFor(d aggregation.Dimension, values []string, filter func(string) domspeech.Filter) []task {
	tasks := make([]task, 0, len(values))
	for _, v := range values {
		tasks = append(tasks, task{key: aggregation.NewKey(d, v), query: facet.Query{Filter: filter(v)}})
	}
	return tasks
}

// processKey aggregates and persists one key. It never panics on bad data and
// always yields an outcome.
func (s *Service) processKey(ctx context.Context, t task) run.Outcome {
	start := time.Now()
	log := logger.ForKey(s.logger, string(t.key.Dimension), t.key.Value)

	sum, err := s.facets.Aggregate(ctx, t.query)
	if err != nil {
		log.Error("aggregation failed", zap.Error(err))
		return run.Failure(t.key, fmt.Errorf("aggregate: %w", err), 0, time.Since(start))
	}

	res := aggregation.NewResult(t.key, sum.Facets, sum.SpeechCount, s.now().UnixMilli())
	attempts, err := s.persist(ctx, log, &res)
	if err != nil {
		log.Error("persist failed", zap.Int("attempts", attempts), zap.Error(err))
		return run.Failure(t.key, err, attempts, time.Since(start))
	}

	d := time.Since(start)
	log.Info("key aggregated",
		zap.Int("speeches", sum.SpeechCount),
		zap.Int("topics", len(res.NLPAggregation.Topics)),
		zap.Int("attempts", attempts),
		zap.Duration("duration", d),
	)
	return run.Success(t.key, &res, attempts, d)
}

// persist writes res, retrying with exponential backoff.
func (s *Service) persist(ctx context.Context, log *zap.Logger, res *aggregation.Result) (int, error) {
	var err error
	backoff := s.persistBackoff
	for attempt := 1; attempt <= s.persistAttempts; attempt++ {
		if err = s.results.Save(ctx, res); err == nil {
			return attempt, nil
		}
		if attempt == s.persistAttempts {
			break
		}
		metrics.PersistRetriesTotal.WithLabelValues(string(res.Type)).Inc()
		log.Warn("persist attempt failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		if serr := s.sleep(ctx, backoff); serr != nil {
			return attempt, fmt.Errorf("persist: %w", errors.Join(err, serr))
		}
		backoff *= 2
	}
	return s.persistAttempts, fmt.Errorf("persist after %d attempts: %w", s.persistAttempts, err)
}

// storeDown pings the store and wraps a failure in ErrStoreUnavailable.
func (s *Service) storeDown(ctx context.Context) error {
	if err := s.store.Ping(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, rep *run.DimensionReport) {
	if s.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishCompleted(pctx, rep); err != nil {
		s.logger.Warn("completion event not published",
			zap.String("dimension", string(rep.Dimension)), zap.Error(err))
	}
}

// prune removes summaries left over from values that no longer occur in the corpus.
// Failures are logged and leave the dimension outcome unchanged.
func (s *Service) prune(ctx context.Context, log *zap.Logger, rep *run.DimensionReport, tasks []task) {
	keep := make([]string, 0, len(tasks))
	for _, t := range tasks {
		keep = append(keep, t.key.Value)
	}
	removed, err := s.pruner.Prune(ctx, rep.Dimension, keep)
	rep.Pruned = removed
	metrics.SummariesPrunedTotal.WithLabelValues(string(rep.Dimension)).Add(float64(len(removed)))
	if err != nil {
		log.Warn("pruning stale summaries failed", zap.Int("removed", len(removed)), zap.Error(err))
		return
	}
	if len(removed) > 0 {
		log.Info("stale summaries pruned", zap.Strings("values", removed))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
