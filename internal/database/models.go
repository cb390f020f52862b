package database

import (
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/search"
)

// Index is a complete built content set: rated works, derived posts in
// load order, authors, and the search documents for those posts.
type Index struct {
	Works     []content.RatedWork
	Posts     []content.Post
	Authors   []content.Author
	Documents []search.Document
}

// Report summarizes one build run.
type Report struct {
	ID          int64   `db:"id"`
	ContentDir  string  `db:"content_dir"`
	WorkCount   int     `db:"work_count"`
	PostCount   int     `db:"post_count"`
	AuthorCount int     `db:"author_count"`
	PollCount   int     `db:"poll_count"`
	DurationMS  int64   `db:"duration_ms"`
	BuiltAt     *string `db:"built_at"`
}

// Stats holds aggregate database statistics.
type Stats struct {
	Works      int
	Posts      int
	ImagePosts int
	Authors    int
	Documents  int
	Builds     int
}

type workRow struct {
	ID              string  `db:"id"`
	Title           string  `db:"title"`
	PopularityScore float64 `db:"popularity_score"`
	PopularityFinal float64 `db:"popularity_final"`
	Data            string  `db:"data"`
}

type authorRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Data string `db:"data"`
}

type postRow struct {
	Position int    `db:"position"`
	ID       string `db:"id"`
	WorkID   string `db:"work_id"`
	AuthorID string `db:"author_id"`
	Type     string `db:"type"`
	Date     string `db:"date"`
	Data     string `db:"data"`
}

type documentRow struct {
	Position int    `db:"position"`
	PostID   string `db:"post_id"`
	Text     string `db:"text"`
}
