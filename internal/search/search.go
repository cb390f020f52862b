// Package search builds the normalized text used for substring search over
// posts.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/TobiSchelling/folio/internal/content"
)

// Document is the searchable text of one post.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Normalize lowercases text, drops everything that is not a letter, digit or
// whitespace, and collapses whitespace. Text is decomposed first, so accents
// are dropped along with punctuation: "Gödel's" becomes "godels".
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lowered := cases.Lower(language.Und).String(norm.NFD.String(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// BuildIndex returns one document per post, built from the post's text or
// caption, its tags, its work title and its author's name.
func BuildIndex(posts []content.Post, authors map[string]content.Author) []Document {
	docs := make([]Document, len(posts))
	for i, p := range posts {
		parts := []string{content.StripHTML(p.HTML())}
		parts = append(parts, p.Tags...)
		if p.Work != nil {
			parts = append(parts, p.Work.Title)
		}
		if a, ok := authors[p.AuthorID]; ok {
			parts = append(parts, a.Name)
		}
		docs[i] = Document{ID: p.ID, Text: Normalize(strings.Join(parts, " "))}
	}
	return docs
}

// Match returns the ids of documents containing the normalized query, in
// index order. A query that normalizes to nothing matches nothing.
func Match(docs []Document, query string) []string {
	q := Normalize(query)
	if q == "" {
		return nil
	}
	var ids []string
	for _, d := range docs {
		if strings.Contains(d.Text, q) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
