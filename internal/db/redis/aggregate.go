package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/speechagg/internal/db"
)

// GroupBy returns the distinct values of an indexed field with per-value document counts:
//
//	FT.AGGREGATE idx query GROUPBY 1 @field REDUCE COUNT 0 AS count
//	  SORTBY 2 @field ASC MAX offset+limit LIMIT offset limit
//
// One call returns one page. Callers page with Offset until a page comes back short.
func (s *Store) GroupBy(ctx context.Context, q *db.GroupQuery) ([]db.GroupRow, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Field == "" {
		return nil, errors.New("group field is required")
	}

	query := q.Query
	if query == "" {
		query = "*"
	}
	field := "@" + q.Field
	limit := q.Limit
	if limit <= 0 {
		limit = db.DefaultGroupLimit
	}
	offset := max(q.Offset, 0)

	args := []string{
		q.IndexName, query,
		"GROUPBY", "1", field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", field, "ASC", "MAX", strconv.Itoa(offset + limit),
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseGroupRows(raw, q.Field)
}

// parseGroupRows reads [total, [field, value, count, n], ...]. A row without the
// field is the group of documents missing it and comes back with an empty Value,
// so the row count still matches the requested page.
func parseGroupRows(raw []rueidis.RedisMessage, field string) ([]db.GroupRow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows := make([]db.GroupRow, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		pairs, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(pairs)
		value := m[field]
		count, _ := strconv.Atoi(m["count"])
		rows = append(rows, db.GroupRow{Value: value, Count: count})
	}
	return rows, nil
}
