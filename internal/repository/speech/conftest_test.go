package speech

import (
	"context"
	"testing"

	"github.com/kailas-cloud/speechagg/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonMGetFn   func(ctx context.Context, keys []string, path string) ([][]byte, error)
	scanPageFn   func(ctx context.Context, cursor uint64, pattern string, count int) ([]string, uint64, error)
	searchListFn func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
	groupByFn     func(ctx context.Context, q *db.GroupQuery) ([]db.GroupRow, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if m.jsonMGetFn != nil {
		return m.jsonMGetFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) ScanPage(ctx context.Context, cursor uint64, pattern string, count int) ([]string, uint64, error) {
	if m.scanPageFn != nil {
		return m.scanPageFn(ctx, cursor, pattern, count)
	}
	return nil, 0, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) GroupBy(ctx context.Context, q *db.GroupQuery) ([]db.GroupRow, error) {
	if m.groupByFn != nil {
		return m.groupByFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T, opts ...Option) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "test:", opts...), ms
}

// docJSON wraps a speech document the way JSON.MGET returns a "$" path.
func docJSON(doc string) []byte {
	return []byte("[" + doc + "]")
}
