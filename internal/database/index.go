package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/search"
)

// ReplaceIndex swaps the stored index for idx in one transaction. Popularity
// is relative to the whole work population, so the index is never updated
// piecemeal.
func (db *DB) ReplaceIndex(ctx context.Context, idx *Index) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace index: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"search_documents", "posts", "authors", "works"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, w := range idx.Works {
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encoding work %s: %w", w.ID, err)
		}
		row := workRow{
			ID:              w.ID,
			Title:           w.Title,
			PopularityScore: w.PopularityScore,
			PopularityFinal: w.PopularityFinal,
			Data:            string(data),
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO works (id, title, popularity_score, popularity_final, data)
			VALUES (:id, :title, :popularity_score, :popularity_final, :data)`, row,
		); err != nil {
			return fmt.Errorf("inserting work %s: %w", w.ID, err)
		}
	}

	for _, a := range idx.Authors {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding author %s: %w", a.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT OR REPLACE INTO authors (id, name, data) VALUES (:id, :name, :data)`,
			authorRow{ID: a.ID, Name: a.Name, Data: string(data)},
		); err != nil {
			return fmt.Errorf("inserting author %s: %w", a.ID, err)
		}
	}

	for i, p := range idx.Posts {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding post %s: %w", p.ID, err)
		}
		postType := content.TypeText
		if p.IsImage() {
			postType = content.TypeImage
		}
		row := postRow{
			Position: i,
			ID:       p.ID,
			WorkID:   p.WorkID,
			AuthorID: p.AuthorID,
			Type:     postType,
			Date:     p.Date,
			Data:     string(data),
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO posts (position, id, work_id, author_id, type, date, data)
			VALUES (:position, :id, :work_id, :author_id, :type, :date, :data)`, row,
		); err != nil {
			return fmt.Errorf("inserting post %s: %w", p.ID, err)
		}
	}

	for i, d := range idx.Documents {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO search_documents (position, post_id, text) VALUES (:position, :post_id, :text)`,
			documentRow{Position: i, PostID: d.ID, Text: d.Text},
		); err != nil {
			return fmt.Errorf("inserting search document %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// LoadIndex reads the stored index back, posts and documents in build order.
func (db *DB) LoadIndex(ctx context.Context) (*Index, error) {
	idx := &Index{}

	var works []workRow
	if err := db.conn.SelectContext(ctx, &works, "SELECT * FROM works ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("loading works: %w", err)
	}
	for _, r := range works {
		var w content.RatedWork
		if err := json.Unmarshal([]byte(r.Data), &w); err != nil {
			return nil, fmt.Errorf("decoding work %s: %w", r.ID, err)
		}
		idx.Works = append(idx.Works, w)
	}

	var authors []authorRow
	if err := db.conn.SelectContext(ctx, &authors, "SELECT * FROM authors ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("loading authors: %w", err)
	}
	for _, r := range authors {
		var a content.Author
		if err := json.Unmarshal([]byte(r.Data), &a); err != nil {
			return nil, fmt.Errorf("decoding author %s: %w", r.ID, err)
		}
		idx.Authors = append(idx.Authors, a)
	}

	var posts []postRow
	if err := db.conn.SelectContext(ctx, &posts, "SELECT * FROM posts ORDER BY position"); err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}
	for _, r := range posts {
		p, err := decodePost(r)
		if err != nil {
			return nil, err
		}
		idx.Posts = append(idx.Posts, *p)
	}

	var docs []documentRow
	if err := db.conn.SelectContext(ctx, &docs, "SELECT * FROM search_documents ORDER BY position"); err != nil {
		return nil, fmt.Errorf("loading search documents: %w", err)
	}
	for _, r := range docs {
		idx.Documents = append(idx.Documents, search.Document{ID: r.PostID, Text: r.Text})
	}

	return idx, nil
}

// GetPost returns the first stored post with the given id, or nil if there
// is none.
func (db *DB) GetPost(ctx context.Context, id string) (*content.Post, error) {
	var r postRow
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM posts WHERE id = ? ORDER BY position LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading post %s: %w", id, err)
	}
	return decodePost(r)
}

// GetPostsByAuthor returns an author's posts in build order.
func (db *DB) GetPostsByAuthor(ctx context.Context, authorID string) ([]content.Post, error) {
	var rows []postRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM posts WHERE author_id = ? ORDER BY position", authorID,
	); err != nil {
		return nil, fmt.Errorf("loading posts for author %s: %w", authorID, err)
	}
	posts := make([]content.Post, 0, len(rows))
	for _, r := range rows {
		p, err := decodePost(r)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func decodePost(r postRow) (*content.Post, error) {
	var p content.Post
	if err := json.Unmarshal([]byte(r.Data), &p); err != nil {
		return nil, fmt.Errorf("decoding post %s: %w", r.ID, err)
	}
	return &p, nil
}
