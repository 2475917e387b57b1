package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speechagg/internal/config"
	dbRedis "github.com/kailas-cloud/speechagg/internal/db/redis"
	"github.com/kailas-cloud/speechagg/internal/events"
	logpkg "github.com/kailas-cloud/speechagg/internal/logger"
	"github.com/kailas-cloud/speechagg/internal/metrics"
	resultrepo "github.com/kailas-cloud/speechagg/internal/repository/result"
	speechrepo "github.com/kailas-cloud/speechagg/internal/repository/speech"
	healthuc "github.com/kailas-cloud/speechagg/internal/usecase/health"
	"github.com/kailas-cloud/speechagg/internal/version"
	"github.com/kailas-cloud/speechagg/internal/worker"
)

// app is the composition root shared by the commands.
type app struct {
	env      string
	cfg      config.Config
	logger   *zap.Logger
	store    *dbRedis.Store
	speeches *speechrepo.Repo
	results  *resultrepo.Repo
	events   *events.Publisher
}

func loadConfig(flags *globalFlags) (string, config.Config, error) {
	env := flags.env
	if env == "" {
		env = config.GetEnv()
	}
	var (
		cfg config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, err
	}
	return env, cfg, nil
}

// newApp loads config, connects to Redis and builds the repositories.
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	env, cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting speechagg",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	metrics.RegisterAggregationMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	limiter := worker.NewLimiter(float64(cfg.Aggregation.MaxQueriesPerSec), 0)
	a := &app{
		env:    env,
		cfg:    cfg,
		logger: logger,
		store:  store,
		speeches: speechrepo.New(store, cfg.Storage.KeyPrefix,
			speechrepo.WithPageSize(cfg.Aggregation.PageSize),
			speechrepo.WithRateLimit(limiter),
			speechrepo.WithLogger(logger),
		),
		results: resultrepo.New(store, cfg.Storage.KeyPrefix),
		events: events.New(events.Config{
			Enabled: cfg.Events.Enabled,
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, logger),
	}
	return a, nil
}

// ensureIndexes creates the search indexes the repositories query.
func (a *app) ensureIndexes(ctx context.Context) error {
	if err := a.speeches.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("speech index: %w", err)
	}
	if err := a.results.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("result index: %w", err)
	}
	return nil
}

func (a *app) health() *healthuc.Service {
	// Pass nil interface (not a typed nil pointer) when events are off.
	var broker healthuc.BrokerChecker
	if a.events.Enabled() {
		broker = a.events
	}
	return healthuc.New(a.store, broker)
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.logger.Warn("closing event publisher", zap.Error(err))
	}
	a.store.Close()
	_ = a.logger.Sync()
}
