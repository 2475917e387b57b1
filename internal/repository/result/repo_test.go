package result

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/speechagg/internal/db"
	"github.com/kailas-cloud/speechagg/internal/domain"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

// --- Save ---

func TestSave_WritesWholeDocumentUnderKey(t *testing.T) {
	repo, ms := newTestRepo(t)
	res := testResult(t)

	var written []byte
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "test:agg:sessions:12" {
			t.Errorf("unexpected key: %s", key)
		}
		if path != "$" {
			t.Errorf("unexpected path: %s", path)
		}
		written = data
		return nil
	}

	if err := repo.Save(context.Background(), &res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		`"type":"sessions"`,
		`"value":"12"`,
		`"namedEntitiesByType":[{"_id":"PER","count":2}]`,
		`"topics":[]`,
		`"sentiment":[]`,
	} {
		if !strings.Contains(string(written), want) {
			t.Errorf("missing %s in %s", want, written)
		}
	}
	if strings.Contains(string(written), "speechCount") {
		t.Error("speechCount must be absent for sessions")
	}
}

func TestSave_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	res := testResult(t)
	ms.jsonSetFn = func(context.Context, string, string, []byte) error { return errors.New("OOM") }

	if err := repo.Save(context.Background(), &res); err == nil {
		t.Fatal("expected error on JSON.SET failure")
	}
}

func TestSave_SameKeyOverwrites(t *testing.T) {
	repo, ms := newTestRepo(t)
	stored := map[string][]byte{}
	ms.jsonSetFn = func(_ context.Context, key, _ string, data []byte) error {
		stored[key] = data
		return nil
	}

	a := testResult(t)
	b := testResult(t)
	b.NLPAggregation.NamedEntitiesByType[0].Count = 5
	_ = repo.Save(context.Background(), &a)
	_ = repo.Save(context.Background(), &b)

	if len(stored) != 1 {
		t.Fatalf("expected one document, got %d", len(stored))
	}
	if !strings.Contains(string(stored["test:agg:sessions:12"]), `"count":5`) {
		t.Error("second save should replace the first")
	}
}

// --- Get ---

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	res := testResult(t)
	data, _ := json.Marshal([]aggregation.Result{res})

	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "test:agg:sessions:12" {
			t.Errorf("unexpected key: %s", key)
		}
		return data, nil
	}

	got, err := repo.Get(context.Background(), res.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != aggregation.DimensionSessions || got.Value != "12" {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.NLPAggregation.Topics == nil || len(got.NLPAggregation.NamedEntitiesByType) != 1 {
		t.Errorf("unexpected facets: %+v", got.NLPAggregation)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), aggregation.NewKey(aggregation.DimensionAll, aggregation.AllValue))
	if !errors.Is(err, domain.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestGet_EmptyPathReply(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(context.Context, string, ...string) ([]byte, error) { return []byte(`[]`), nil }

	_, err := repo.Get(context.Background(), aggregation.NewKey(aggregation.DimensionAll, aggregation.AllValue))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// --- ListValues / Count ---

func TestListValues_Pages(t *testing.T) {
	repo, ms := newTestRepo(t)

	calls := 0
	ms.searchListFn = func(
		_ context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error) {
		calls++
		if index != "test:agg:idx" || query != "@type:{speakers}" || fields[0] != "value" {
			t.Errorf("unexpected search: %s %s %v", index, query, fields)
		}
		if offset == 0 {
			entries := make([]db.SearchEntry, limit)
			for i := range entries {
				entries[i] = db.SearchEntry{Fields: map[string]string{"value": "S"}}
			}
			return &db.SearchResult{Total: limit + 1, Entries: entries}, nil
		}
		return &db.SearchResult{Total: limit + 1, Entries: []db.SearchEntry{
			{Fields: map[string]string{"value": "last"}},
		}}, nil
	}

	got, err := repo.ListValues(context.Background(), aggregation.DimensionSpeakers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 || len(got) != listPageSize+1 || got[len(got)-1] != "last" {
		t.Errorf("calls=%d len=%d", calls, len(got))
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, _, query string) (int, error) {
		if query != "@type:{topics}" {
			t.Errorf("unexpected query %q", query)
		}
		return 7, nil
	}

	n, err := repo.Count(context.Background(), aggregation.DimensionTopics)
	if err != nil || n != 7 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestEnsureIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		if def.Name != "test:agg:idx" || def.Prefixes[0] != "test:agg:" {
			t.Errorf("unexpected index %s", def)
		}
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReindex_DropsExistingIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	var calls []string
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		calls = append(calls, "exists "+name)
		return true, nil
	}
	ms.dropIndexFn = func(_ context.Context, name string) error {
		calls = append(calls, "drop "+name)
		return nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		calls = append(calls, "create "+def.Name)
		return nil
	}

	if err := repo.Reindex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "exists test:agg:idx,drop test:agg:idx,create test:agg:idx"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestReindex_MissingIndexOnlyCreates(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.dropIndexFn = func(context.Context, string) error {
		t.Error("drop must not be called for a missing index")
		return nil
	}
	created := false
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		created = true
		return nil
	}

	if err := repo.Reindex(context.Background()); err != nil || !created {
		t.Fatalf("Reindex() = %v, created = %v", err, created)
	}
}

// --- Delete / Prune ---

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)
	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if err := repo.Delete(context.Background(), aggregation.NewKey(aggregation.DimensionSpeakers, "Anna")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "test:agg:speakers:Anna" {
		t.Errorf("deleted %q", deleted)
	}
}

func TestPrune_RemovesValuesNotKept(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(context.Context, string, string, int, int, []string) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
			{Fields: map[string]string{"value": "Anna"}},
			{Fields: map[string]string{"value": "Bernd"}},
			{Fields: map[string]string{"value": "Clara"}},
		}}, nil
	}
	var deleted []string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = append(deleted, key)
		return nil
	}

	removed, err := repo.Prune(context.Background(), aggregation.DimensionSpeakers, []string{"Anna", "Clara"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(removed) != 1 || removed[0] != "Bernd" {
		t.Errorf("removed = %v", removed)
	}
	if len(deleted) != 1 || deleted[0] != "test:agg:speakers:Bernd" {
		t.Errorf("deleted = %v", deleted)
	}
}

func TestPrune_DeleteError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(context.Context, string, string, int, int, []string) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Fields: map[string]string{"value": "gone"}},
		}}, nil
	}
	ms.delFn = func(context.Context, string) error { return errors.New("READONLY") }

	if _, err := repo.Prune(context.Background(), aggregation.DimensionSessions, nil); err == nil {
		t.Fatal("expected error")
	}
}
