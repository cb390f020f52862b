// Package collect ingests RSS/Atom feeds as text posts in the content
// directory, one posts/<source>.json file per feed.
package collect

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/folio/internal/config"
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/fetch"
	"github.com/TobiSchelling/folio/internal/logging"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewPosts   int
	Duplicates int
	Failed     int
	Sources    map[string]int
	Fetch      *fetch.Result
}

// Collector pulls configured feeds into the content directory.
type Collector struct {
	feeds      []config.Feed
	contentDir string
	parser     *gofeed.Parser
	fetcher    *fetch.Fetcher
}

// NewCollector creates a collector for the configured feeds. Posts whose feed
// item had no body are filled by fetcher when it is non-nil.
func NewCollector(cfg *config.Config, fetcher *fetch.Fetcher) *Collector {
	return &Collector{
		feeds:      cfg.Sources.Feeds,
		contentDir: cfg.Content.Dir,
		parser:     gofeed.NewParser(),
		fetcher:    fetcher,
	}
}

// Collect parses every feed and merges new items into the feed's post file.
// Posts already in the file are kept as they are, including any poll they
// carry. A feed that fails to parse is logged and skipped.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}

	for _, fc := range c.feeds {
		name := SourceName(fc)
		posts, err := ParseFeed(ctx, c.parser, fc)
		if err != nil {
			logging.Warn().Err(err).Str("feed", fc.URL).Msg("failed to parse feed")
			r.Failed++
			continue
		}
		r.TotalFound += len(posts)

		path := filepath.Join(c.contentDir, content.PostsDir, name+".json")
		existing, err := readPostFile(path)
		if err != nil {
			return r, err
		}

		fresh := newPosts(existing.Posts, posts)
		r.Duplicates += len(posts) - len(fresh)
		if len(fresh) == 0 {
			logging.Info().Str("source", name).Msg("no new items")
			continue
		}

		if c.fetcher != nil {
			var fr *fetch.Result
			fresh, fr = c.fetcher.FillMissing(ctx, fresh)
			r.Fetch = addFetch(r.Fetch, fr)
		}

		existing.Posts = append(existing.Posts, fresh...)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return r, err
		}
		if err := content.WritePostFile(existing); err != nil {
			return r, err
		}

		r.NewPosts += len(fresh)
		r.Sources[name] += len(fresh)
		logging.Info().Str("source", name).Int("new", len(fresh)).Msg("collected feed")
	}

	logging.Info().Int("found", r.TotalFound).Int("new", r.NewPosts).Int("duplicates", r.Duplicates).Msg("collection complete")
	return r, nil
}

func readPostFile(path string) (content.PostFile, error) {
	f := content.PostFile{Path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return f, nil
	}
	return content.ReadPostFile(path)
}

func newPosts(existing, incoming []content.Post) []content.Post {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}
	var fresh []content.Post
	for _, p := range incoming {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		fresh = append(fresh, p)
	}
	return fresh
}

func addFetch(total, r *fetch.Result) *fetch.Result {
	if total == nil {
		total = &fetch.Result{}
	}
	total.Fetched += r.Fetched
	total.AlreadyHadContent += r.AlreadyHadContent
	total.Failed += r.Failed
	return total
}
