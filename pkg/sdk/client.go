package speechagg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/speechagg/internal/db/redis"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/run"
	resultrepo "github.com/kailas-cloud/speechagg/internal/repository/result"
	speechrepo "github.com/kailas-cloud/speechagg/internal/repository/speech"
	"github.com/kailas-cloud/speechagg/internal/usecase/facet"
	"github.com/kailas-cloud/speechagg/internal/usecase/orchestrator"
	"github.com/kailas-cloud/speechagg/internal/usecase/topicindex"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "speechagg:"
)

// Internal interfaces, swapped for fakes in tests.
type resultReader interface {
	Get(ctx context.Context, key aggregation.Key) (aggregation.Result, error)
	ListValues(ctx context.Context, d aggregation.Dimension) ([]string, error)
	EnsureIndex(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context, dims []aggregation.Dimension) *run.Report
}

type indexer interface {
	EnsureIndex(ctx context.Context) error
}

type store interface {
	Ping(ctx context.Context) error
	Close()
}

// Client reads stored summaries and can refresh them.
type Client struct {
	store    store
	results  resultReader
	speeches indexer
	runner   runner
	obs      *observer
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("speechagg: database address required (use WithRedis)")
	}

	s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("speechagg: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("speechagg: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		s.Close()
		return nil, err
	}
	return wireClient(s, cfg, obs), nil
}

func wireClient(s *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()
	speeches := speechrepo.New(s, cfg.keyPrefix, speechrepo.WithPageSize(cfg.pageSize))
	results := resultrepo.New(s, cfg.keyPrefix)

	topics := topicindex.New(speeches, logger)
	facets := facet.New(speeches, logger, facet.WithTopEntities(cfg.topEntities))
	opts := []orchestrator.Option{
		orchestrator.WithWorkers(cfg.workers),
		orchestrator.WithPersistRetry(cfg.persistAttempts, cfg.persistBackoff),
	}
	if cfg.pruneStale {
		opts = append(opts, orchestrator.WithPruneStale(results))
	}
	orch := orchestrator.New(speeches, topics, facets, results, s, logger, opts...)

	return &Client{
		store:    s,
		results:  results,
		speeches: speeches,
		runner:   orch,
		obs:      obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { c.obs.observe("ping", start, err) }(time.Now())
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Summary returns the stored summary for (d, value). It wraps ErrNotFound when none exists.
func (c *Client) Summary(ctx context.Context, d Dimension, value string) (_ Summary, err error) {
	defer func(start time.Time) { c.obs.observe("summary.get", start, err) }(time.Now())
	res, err := c.results.Get(ctx, aggregation.NewKey(d, value))
	if err != nil {
		return Summary{}, fmt.Errorf("summary %s %q: %w", d, value, err)
	}
	return res, nil
}

// Values lists the values of d that have a stored summary, sorted.
func (c *Client) Values(ctx context.Context, d Dimension) (_ []string, err error) {
	defer func(start time.Time) { c.obs.observe("summary.list", start, err) }(time.Now())
	if err := c.results.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure result index: %w", err)
	}
	values, err := c.results.ListValues(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d, err)
	}
	return values, nil
}

// Run recomputes the summaries of the given dimensions, or of all of them when none
// are given. The returned error is non-nil only when the run could not start; check
// Report.OK for per-key failures.
func (c *Client) Run(ctx context.Context, dims ...Dimension) (_ *Report, err error) {
	defer func(start time.Time) { c.obs.observe("run", start, err) }(time.Now())
	if len(dims) == 0 {
		dims = aggregation.Dimensions()
	}
	if err := c.speeches.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure speech index: %w", err)
	}
	if err := c.results.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure result index: %w", err)
	}
	return c.runner.Run(ctx, dims), nil
}
