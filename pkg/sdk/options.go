package speechagg

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	workers         int
	pageSize        int
	topEntities     int
	persistAttempts int
	persistBackoff  time.Duration
	pruneStale      bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis 8 instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the prefix shared by speech and summary keys. Default: "speechagg:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithWorkers sets how many keys Run aggregates concurrently. Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithPageSize sets how many speeches are fetched per store round-trip. Default: 500.
func WithPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = n
	})
}

// WithTopEntities caps the named-entities-by-text facet. Default: 100.
func WithTopEntities(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topEntities = n
	})
}

// WithPersistRetry sets write attempts per summary and the initial backoff.
func WithPersistRetry(attempts int, backoff time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.persistAttempts = attempts
		c.persistBackoff = backoff
	})
}

// WithPruneStale makes Run delete the summaries of values that no longer occur in the
// corpus once a dimension completes without failures.
func WithPruneStale() Option {
	return optionFunc(func(c *clientConfig) {
		c.pruneStale = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
