package redis

import (
	"context"

	"github.com/kailas-cloud/speechagg/internal/db"
)

// ScanPage runs one SCAN step. A returned cursor of 0 means the iteration is complete.
func (s *Store) ScanPage(ctx context.Context, cursor uint64, pattern string, count int) ([]string, uint64, error) {
	if count <= 0 {
		count = 100
	}
	cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(int64(count)).Build()
	res, err := s.do(ctx, cmd).AsScanEntry()
	if err != nil {
		return nil, 0, &db.Error{Op: db.OpScan, Err: err}
	}
	return res.Elements, res.Cursor, nil
}
