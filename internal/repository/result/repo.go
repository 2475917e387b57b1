package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/speechagg/internal/db"
	"github.com/kailas-cloud/speechagg/internal/db/redis"
	"github.com/kailas-cloud/speechagg/internal/domain"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

const (
	fieldType  = "type"
	fieldValue = "value"

	listPageSize = 200
)

// store is the consumer interface for aggregation results (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo persists one summary document per aggregation key.
type Repo struct {
	store  store
	prefix string
}

// New creates a result repository over keys under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// EnsureIndex creates the result index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	idx, err := db.NewIndex(r.indexName()).
		OnJSON().
		Prefix(r.keyPrefix()).
		JSONTag("$.type", fieldType, "", true).
		JSONTag("$.value", fieldValue, "|", true).
		Build()
	if err != nil {
		return fmt.Errorf("build result index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create result index: %w", err)
	}
	return nil
}

// Reindex drops the result index, if present, and creates it again.
// Stored summaries are kept and re-indexed by Redis in the background.
func (r *Repo) Reindex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe result index: %w", err)
	}
	if exists {
		if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop result index: %w", err)
		}
	}
	return r.EnsureIndex(ctx)
}

// Save writes res under its key, replacing any previous summary in one JSON.SET.
func (r *Repo) Save(ctx context.Context, res *aggregation.Result) error {
	key := r.resultKey(res.Key())
	data, err := marshal(res)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Delete removes the summary stored for key. Deleting a missing key is not an error.
func (r *Repo) Delete(ctx context.Context, key aggregation.Key) error {
	k := r.resultKey(key)
	if err := r.store.Del(ctx, k); err != nil {
		return fmt.Errorf("del %s: %w", k, err)
	}
	return nil
}

// Prune deletes the summaries of dimension d whose value is not in keep and
// returns the removed values.
func (r *Repo) Prune(ctx context.Context, d aggregation.Dimension, keep []string) ([]string, error) {
	stored, err := r.ListValues(ctx, d)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(keep))
	for _, v := range keep {
		live[v] = struct{}{}
	}
	var removed []string
	for _, v := range stored {
		if _, ok := live[v]; ok {
			continue
		}
		if err := r.Delete(ctx, aggregation.NewKey(d, v)); err != nil {
			return removed, err
		}
		removed = append(removed, v)
	}
	return removed, nil
}

// Get returns the summary stored for key.
func (r *Repo) Get(ctx context.Context, key aggregation.Key) (aggregation.Result, error) {
	k := r.resultKey(key)
	raw, err := r.store.JSONGet(ctx, k, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return aggregation.Result{}, domain.ErrResultNotFound
		}
		return aggregation.Result{}, fmt.Errorf("json.get %s: %w", k, err)
	}

	var docs []aggregation.Result
	if err := json.Unmarshal(raw, &docs); err != nil {
		return aggregation.Result{}, fmt.Errorf("unmarshal result %s: %w", k, err)
	}
	if len(docs) == 0 {
		return aggregation.Result{}, domain.ErrResultNotFound
	}
	docs[0].NLPAggregation.Normalize()
	return docs[0], nil
}

// ListValues returns the values that have a stored summary in dimension d, sorted.
func (r *Repo) ListValues(ctx context.Context, d aggregation.Dimension) ([]string, error) {
	query := redis.TagQuery(fieldType, string(d))
	var values []string
	for offset := 0; ; offset += listPageSize {
		res, err := r.store.SearchList(ctx, r.indexName(), query, offset, listPageSize, []string{fieldValue})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", d, err)
		}
		if res == nil || len(res.Entries) == 0 {
			break
		}
		for _, e := range res.Entries {
			if v, ok := e.Fields[fieldValue]; ok {
				values = append(values, v)
			}
		}
		if offset+len(res.Entries) >= res.Total {
			break
		}
	}
	slices.Sort(values)
	return values, nil
}

// Count returns how many summaries are stored for dimension d.
func (r *Repo) Count(ctx context.Context, d aggregation.Dimension) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), redis.TagQuery(fieldType, string(d)))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", d, err)
	}
	return n, nil
}

func marshal(res *aggregation.Result) ([]byte, error) {
	res.NLPAggregation.Normalize()
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result %s: %w", res.Key(), err)
	}
	return data, nil
}

func (r *Repo) keyPrefix() string { return r.prefix + "agg:" }

func (r *Repo) resultKey(k aggregation.Key) string {
	return fmt.Sprintf("%s%s:%s", r.keyPrefix(), k.Dimension, k.Value)
}

func (r *Repo) indexName() string { return r.prefix + "agg:idx" }
