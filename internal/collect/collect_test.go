package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/folio/internal/config"
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/fetch"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Math Notes</title>
  <link>https://notes.example.org/</link>
  <item>
    <title>The Infinitude of Primes</title>
    <link>%[1]s/primes</link>
    <description>&lt;p&gt;Euclid showed there is no largest prime.&lt;/p&gt;</description>
    <category>Number Theory</category>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Untitled link only</title>
    <link>%[1]s/empty</link>
  </item>
  <item>
    <title>   </title>
    <link>%[1]s/no-title</link>
  </item>
</channel>
</rss>`

const articlePage = `<html><head><title>Long read</title></head><body><article>
<p>The parallel postulate resisted proof for two thousand years until geometers accepted that consistent geometries exist without it.</p>
<p>Lobachevsky, Bolyai and Gauss each arrived at hyperbolic geometry independently, a story told many times since then.</p>
</article></body></html>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, rssTemplate, srv.URL)
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(articlePage))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestItemsToPosts(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(fmt.Sprintf(rssTemplate, "https://notes.example.org"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fc := config.Feed{URL: "https://notes.example.org/feed.xml", Name: "Math Notes", WorkID: "notes", Tags: []string{"mathematics"}}

	posts := ItemsToPosts(feed, fc)
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	p := posts[0]
	if p.ID != PostID("math-notes", "https://notes.example.org/primes") {
		t.Errorf("unexpected id %q", p.ID)
	}
	if !strings.HasPrefix(p.ID, "math-notes-") {
		t.Errorf("expected id prefixed with source slug, got %q", p.ID)
	}
	if p.AuthorID != "math-notes" || p.WorkID != "notes" || p.Type != content.TypeText {
		t.Errorf("unexpected attribution: %+v", p)
	}
	if p.Date != "2026-03-02" {
		t.Errorf("expected date 2026-03-02, got %q", p.Date)
	}
	if strings.Join(p.Tags, ",") != "mathematics,Number Theory" {
		t.Errorf("unexpected tags %v", p.Tags)
	}
	if p.Content == nil || p.Content.HTML != "<p>Euclid showed there is no largest prime.</p>" {
		t.Errorf("unexpected body %+v", p.Content)
	}
	if posts[1].Content != nil {
		t.Error("item without description should have no body")
	}
}

func TestSourceName(t *testing.T) {
	cases := []struct {
		feed config.Feed
		want string
	}{
		{config.Feed{Name: "Quanta Math!"}, "quanta-math"},
		{config.Feed{URL: "https://www.quantamagazine.org/feed"}, "quantamagazine"},
		{config.Feed{URL: "https://blog.example.com/rss"}, "example"},
	}
	for _, c := range cases {
		if got := SourceName(c.feed); got != c.want {
			t.Errorf("SourceName(%+v): expected %q, got %q", c.feed, c.want, got)
		}
	}
}

func TestCollectWritesAndMerges(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()
	cfg := &config.Config{
		Content: config.Content{Dir: dir},
		Sources: config.Sources{Feeds: []config.Feed{
			{URL: srv.URL + "/feed.xml", Name: "notes", AuthorID: "editor"},
		}},
	}
	ctx := context.Background()

	r, err := NewCollector(cfg, nil).Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.TotalFound != 2 || r.NewPosts != 2 || r.Duplicates != 0 || r.Sources["notes"] != 2 {
		t.Errorf("unexpected first result: %+v", r)
	}

	path := filepath.Join(dir, content.PostsDir, "notes.json")
	f, err := content.ReadPostFile(path)
	if err != nil {
		t.Fatalf("ReadPostFile: %v", err)
	}
	// Simulate a poll added between runs.
	f.Posts[0].Poll = &content.Poll{Question: "Q?", Options: []string{"a", "b", "c"}, Difficulty: content.DifficultyEasy}
	if err := content.WritePostFile(f); err != nil {
		t.Fatal(err)
	}

	r, err = NewCollector(cfg, nil).Collect(ctx)
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if r.NewPosts != 0 || r.Duplicates != 2 {
		t.Errorf("unexpected second result: %+v", r)
	}

	f, err = content.ReadPostFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Posts) != 2 || f.Posts[0].Poll == nil || f.Posts[0].AuthorID != "editor" {
		t.Errorf("existing posts should be kept untouched: %+v", f.Posts)
	}
}

func TestCollectFetchesMissingBodies(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()
	cfg := &config.Config{
		Content: config.Content{Dir: dir},
		Sources: config.Sources{Feeds: []config.Feed{{URL: srv.URL + "/feed.xml", Name: "notes"}}},
	}

	r, err := NewCollector(cfg, fetch.New(5*time.Second)).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.Fetch == nil || r.Fetch.Fetched != 1 || r.Fetch.AlreadyHadContent != 1 {
		t.Errorf("unexpected fetch result: %+v", r.Fetch)
	}

	f, err := content.ReadPostFile(filepath.Join(dir, content.PostsDir, "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Posts[1].Content == nil || !strings.Contains(f.Posts[1].Content.HTML, "parallel postulate") {
		t.Errorf("expected fetched body, got %+v", f.Posts[1].Content)
	}
}

func TestCollectSkipsBrokenFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		Content: config.Content{Dir: dir},
		Sources: config.Sources{Feeds: []config.Feed{{URL: srv.URL, Name: "broken"}}},
	}
	r, err := NewCollector(cfg, nil).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.Failed != 1 || r.NewPosts != 0 {
		t.Errorf("unexpected result: %+v", r)
	}
	if _, err := os.Stat(filepath.Join(dir, content.PostsDir, "broken.json")); !os.IsNotExist(err) {
		t.Error("no post file should be written for a broken feed")
	}
}
