package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertReport records a finished build and returns its id.
func (db *DB) InsertReport(ctx context.Context, r Report) (int64, error) {
	result, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO build_reports (content_dir, work_count, post_count, author_count, poll_count, duration_ms)
		VALUES (:content_dir, :work_count, :post_count, :author_count, :poll_count, :duration_ms)`, r,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting build report: %w", err)
	}
	return result.LastInsertId()
}

// GetLastReport returns the most recent build report, or nil if nothing has
// been built yet.
func (db *DB) GetLastReport(ctx context.Context) (*Report, error) {
	var r Report
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM build_reports ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading last build report: %w", err)
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM works", &s.Works},
		{"SELECT COUNT(*) FROM posts", &s.Posts},
		{"SELECT COUNT(*) FROM posts WHERE type = 'image'", &s.ImagePosts},
		{"SELECT COUNT(*) FROM authors", &s.Authors},
		{"SELECT COUNT(*) FROM search_documents", &s.Documents},
		{"SELECT COUNT(*) FROM build_reports", &s.Builds},
	}

	for _, q := range queries {
		if err := db.conn.GetContext(ctx, q.dest, q.sql); err != nil {
			return nil, err
		}
	}

	return s, nil
}
