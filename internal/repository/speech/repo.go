package speech

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/speechagg/internal/db"
	"github.com/kailas-cloud/speechagg/internal/db/redis"
	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
	"github.com/kailas-cloud/speechagg/internal/metrics"
	"github.com/kailas-cloud/speechagg/internal/worker"
)

const (
	fieldSpeaker = "speaker"
	fieldSession = "session"

	defaultPageSize = 500
)

// store is the consumer interface for the speech corpus (ISP).
type store interface {
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int) ([]string, uint64, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	GroupBy(ctx context.Context, q *db.GroupQuery) ([]db.GroupRow, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// PageFunc receives one page of decoded speeches.
type PageFunc = func(page []domspeech.Speech) error

// Repo reads the speech corpus.
type Repo struct {
	store    store
	prefix   string
	pageSize int
	limiter  *worker.Limiter
	logger   *zap.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithPageSize sets how many speeches are fetched per store round-trip.
func WithPageSize(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithRateLimit throttles every store read through l.
func WithRateLimit(l *worker.Limiter) Option {
	return func(r *Repo) { r.limiter = l }
}

// WithLogger sets the logger used for skipped documents.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// New creates a speech repository over keys under prefix.
func New(s store, prefix string, opts ...Option) *Repo {
	r := &Repo{store: s, prefix: prefix, pageSize: defaultPageSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureIndex creates the speech index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	idx, err := db.NewIndex(r.indexName()).
		OnJSON().
		Prefix(r.keyPrefix()).
		JSONTag("$.speaker", fieldSpeaker, "|", true).
		JSONTag("$.protocol.index", fieldSession, "", true).
		Build()
	if err != nil {
		return fmt.Errorf("build speech index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create speech index: %w", err)
	}
	return nil
}

// Reindex drops the speech index, if present, and creates it again over the stored documents.
func (r *Repo) Reindex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe speech index: %w", err)
	}
	if exists {
		if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop speech index: %w", err)
		}
	}
	return r.EnsureIndex(ctx)
}

// Stream feeds every speech admitted by f to fn, one page at a time.
func (r *Repo) Stream(ctx context.Context, f domspeech.Filter, fn PageFunc) error {
	switch f.Kind() {
	case domspeech.FilterAll:
		return r.streamAll(ctx, fn)
	case domspeech.FilterSession:
		return r.streamQuery(ctx, redis.TagQuery(fieldSession, f.Value()), fn)
	case domspeech.FilterSpeaker:
		return r.streamQuery(ctx, redis.TagQuery(fieldSpeaker, f.Value()), fn)
	case domspeech.FilterIDs:
		return r.streamIDs(ctx, f.IDs(), fn)
	default:
		return fmt.Errorf("unsupported filter %s", f)
	}
}

// DistinctSessions returns the trimmed, non-empty session indices in the corpus.
func (r *Repo) DistinctSessions(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, fieldSession)
}

// DistinctSpeakers returns the non-blank speaker names in the corpus.
func (r *Repo) DistinctSpeakers(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, fieldSpeaker)
}

func (r *Repo) distinct(ctx context.Context, field string) ([]string, error) {
	var out []string
	for offset := 0; ; offset += r.pageSize {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		rows, err := r.store.GroupBy(ctx, &db.GroupQuery{
			IndexName: r.indexName(),
			Field:     field,
			Offset:    offset,
			Limit:     r.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("distinct %s: %w", field, err)
		}

		for _, row := range rows {
			v := row.Value
			if field == fieldSession {
				v = strings.TrimSpace(v)
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			out = append(out, v)
		}
		if len(rows) < r.pageSize {
			break
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// streamAll walks the keyspace with SCAN and loads each batch with JSON.MGET.
func (r *Repo) streamAll(ctx context.Context, fn PageFunc) error {
	pattern := r.keyPrefix() + "*"
	seen := make(map[string]struct{})
	var cursor uint64

	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		keys, next, err := r.store.ScanPage(ctx, cursor, pattern, r.pageSize)
		if err != nil {
			return fmt.Errorf("scan speeches: %w", err)
		}

		fresh := make([]string, 0, len(keys))
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			fresh = append(fresh, k)
		}
		if err := r.loadKeys(ctx, fresh, fn); err != nil {
			return err
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Repo) streamIDs(ctx context.Context, ids []string, fn PageFunc) error {
	for chunk := range slices.Chunk(ids, r.pageSize) {
		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = r.speechKey(id)
		}
		if err := r.loadKeys(ctx, keys, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) loadKeys(ctx context.Context, keys []string, fn PageFunc) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	docs, err := r.store.JSONMGet(ctx, keys, "$")
	if err != nil {
		return fmt.Errorf("load %d speeches: %w", len(keys), err)
	}

	page := make([]domspeech.Speech, 0, len(docs))
	for i, raw := range docs {
		if raw == nil {
			continue
		}
		id := r.speechID(keys[i])
		s, ok, err := decodeSpeechPath(id, raw)
		if err != nil {
			r.logger.Warn("skipping undecodable speech", zap.String("id", id), zap.Error(err))
			continue
		}
		if ok {
			page = append(page, s)
		}
	}
	return r.emit(page, fn)
}

// streamQuery pages through FT.SEARCH results for query.
func (r *Repo) streamQuery(ctx context.Context, query string, fn PageFunc) error {
	for offset := 0; ; offset += r.pageSize {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		res, err := r.store.SearchList(ctx, r.indexName(), query, offset, r.pageSize, []string{"$"})
		if err != nil {
			return fmt.Errorf("search %s: %w", query, err)
		}
		if res == nil || len(res.Entries) == 0 {
			return nil
		}

		page := make([]domspeech.Speech, 0, len(res.Entries))
		for _, e := range res.Entries {
			id := r.speechID(e.Key)
			raw := e.Fields["$"]
			if raw == "" {
				continue
			}
			s, err := decodeSpeech(id, []byte(raw))
			if err != nil {
				r.logger.Warn("skipping undecodable speech", zap.String("id", id), zap.Error(err))
				continue
			}
			page = append(page, s)
		}
		if err := r.emit(page, fn); err != nil {
			return err
		}

		if offset+len(res.Entries) >= res.Total {
			return nil
		}
	}
}

func (r *Repo) emit(page []domspeech.Speech, fn PageFunc) error {
	if len(page) == 0 {
		return nil
	}
	metrics.SpeechesScannedTotal.Add(float64(len(page)))
	return fn(page)
}

func (r *Repo) keyPrefix() string { return r.prefix + "speech:" }

func (r *Repo) speechKey(id string) string { return r.keyPrefix() + id }

func (r *Repo) speechID(key string) string { return strings.TrimPrefix(key, r.keyPrefix()) }

func (r *Repo) indexName() string { return r.prefix + "speech:idx" }
