package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	chiTransport "github.com/kailas-cloud/speechagg/internal/transport/chi"
	"github.com/kailas-cloud/speechagg/internal/usecase/facet"
	"github.com/kailas-cloud/speechagg/internal/usecase/orchestrator"
	"github.com/kailas-cloud/speechagg/internal/usecase/topicindex"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		workers int
		prune   bool
	)
	cmd := &cobra.Command{
		Use:   "run [dimension...]",
		Short: "Aggregate one or more dimensions (default: all of them)",
		Long: `Run computes and stores the faceted summary of every key of the selected
dimensions: all, sessions, speakers, topics. Without arguments every dimension
runs in that order.

SIGINT or SIGTERM stops scheduling new keys; keys in progress are finished
and the report lists what was completed.

With --prune (or aggregation.prune_stale) a dimension that completes cleanly
also deletes the stored summaries of values no longer present in the corpus.

Example:
  speechagg run
  speechagg run sessions speakers --workers 8
  speechagg run speakers --prune`,
		Args: func(_ *cobra.Command, args []string) error {
			_, err := parseDimensions(args)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, _ := parseDimensions(args)
			return runAggregation(cmd, flags, dims, workers, prune)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "keys aggregated concurrently (default: aggregation.workers)")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete stale summaries after a clean run (default: aggregation.prune_stale)")
	return cmd
}

// parseDimensions maps arguments to dimensions, dropping duplicates and keeping run order.
func parseDimensions(args []string) ([]aggregation.Dimension, error) {
	if len(args) == 0 {
		return aggregation.Dimensions(), nil
	}
	var dims []aggregation.Dimension
	for _, a := range args {
		d, err := aggregation.ParseDimension(a)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(dims, d) {
			dims = append(dims, d)
		}
	}
	return dims, nil
}

func runAggregation(cmd *cobra.Command, flags *globalFlags, dims []aggregation.Dimension, workers int, prune bool) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ensureIndexes(ctx); err != nil {
		return err
	}

	cfg := a.cfg.Aggregation
	if workers <= 0 {
		workers = cfg.Workers
	}

	topics := topicindex.New(a.speeches, a.logger, topicindex.WithProgressEvery(cfg.ProgressEvery))
	facets := facet.New(a.speeches, a.logger, facet.WithTopEntities(cfg.TopEntities))
	opts := []orchestrator.Option{
		orchestrator.WithWorkers(workers),
		orchestrator.WithPersistRetry(cfg.PersistAttempts, time.Duration(cfg.PersistBackoffMs)*time.Millisecond),
		orchestrator.WithEvents(a.events),
	}
	if prune || cfg.PruneStale {
		opts = append(opts, orchestrator.WithPruneStale(a.results))
	}
	svc := orchestrator.New(a.speeches, topics, facets, a.results, a.store, a.logger, opts...)

	// The ops server lives exactly as long as the run.
	g, gctx := errgroup.WithContext(ctx)
	opsCtx, stopOps := context.WithCancel(gctx)
	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		ops := chiTransport.NewServer(a.health(), a.logger)
		g.Go(func() error { return ops.ListenAndServe(opsCtx, addr) })
	}

	start := time.Now()
	rep := svc.Run(ctx, dims)
	stopOps()
	if err := g.Wait(); err != nil {
		a.logger.Warn("ops server failed", zap.Error(err))
	}

	printReport(cmd.OutOrStdout(), rep)
	succeeded, failed, abandoned := rep.Totals()
	a.logger.Info("Run finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("abandoned", abandoned),
		zap.Duration("duration", time.Since(start)),
	)
	if !rep.OK() {
		return fmt.Errorf("%w: %d failed, %d abandoned", ErrRunIncomplete, failed, abandoned)
	}
	return nil
}
