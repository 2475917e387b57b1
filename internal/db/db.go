package db

import (
	"context"
	"time"
)

// Store is the storage facade used by the aggregation job.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces below
type Store interface {
	Pinger
	JSONStore
	IndexManager
	Searcher
	Aggregator
	KeyScanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONMGet returns one entry per key, nil where the key does not exist.
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides paged filter queries over FT indexes.
type Searcher interface {
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Aggregator provides grouped queries over FT indexes.
type Aggregator interface {
	GroupBy(ctx context.Context, q *GroupQuery) ([]GroupRow, error)
}

// KeyScanner iterates the keyspace one SCAN page at a time.
type KeyScanner interface {
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int) (keys []string, next uint64, err error)
}
