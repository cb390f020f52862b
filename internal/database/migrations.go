package database

import "github.com/jmoiron/sqlx"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sqlx.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sqlx.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS works (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    popularity_score REAL NOT NULL,
    popularity_final REAL NOT NULL,
    data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS authors (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    work_id TEXT NOT NULL DEFAULT '',
    author_id TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'text',
    date TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS search_documents (
    position INTEGER PRIMARY KEY,
    post_id TEXT NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_id ON posts(id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "build reports and post lookups by work and author",
		Up: func(tx *sqlx.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS build_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content_dir TEXT NOT NULL DEFAULT '',
    work_count INTEGER DEFAULT 0,
    post_count INTEGER DEFAULT 0,
    author_count INTEGER DEFAULT 0,
    poll_count INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    built_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_posts_work ON posts(work_id);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
