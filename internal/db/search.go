package db

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// GroupQuery is the input for FT.AGGREGATE ... GROUPBY 1 @Field REDUCE COUNT 0.
type GroupQuery struct {
	IndexName string
	Query     string // defaults to "*"
	Field     string // index alias, without the leading '@'
	Offset    int
	Limit     int // <= 0 means DefaultGroupLimit
}

// DefaultGroupLimit is the page size GroupBy requests when GroupQuery.Limit is unset.
// FT.AGGREGATE with SORTBY otherwise stops at 10 rows.
const DefaultGroupLimit = 1000

// GroupRow is one distinct value of the grouped field with its document count.
type GroupRow struct {
	Value string
	Count int
}
