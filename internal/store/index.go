package store

import (
	"context"
	"fmt"
	"log/slog"
)

// CreateIndexes creates one index per indexable column of every known table.
// Indexing is a pure optimization: any failure (index already present,
// read-only database, ...) is logged at debug level and skipped.
//
// Returns the number of indexes created.
func (s *Store) CreateIndexes(ctx context.Context) int {
	created := 0
	for _, tbl := range Tables {
		for _, col := range tbl.Indexed {
			name := fmt.Sprintf("idx_%s_%s", tbl.Name, col)
			stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, tbl.Name, col)
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				slog.Debug("index not created", "index", name, "error", err)
				continue
			}
			created++
		}
	}
	return created
}
