package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/folio/internal/config"
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/prng"
)

const maxPerFeed = 20

// ParseFeed downloads one RSS/Atom feed and converts its items to posts.
func ParseFeed(ctx context.Context, parser *gofeed.Parser, fc config.Feed) ([]content.Post, error) {
	feed, err := parser.ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		return nil, err
	}
	return ItemsToPosts(feed, fc), nil
}

// ItemsToPosts converts up to maxPerFeed items of a parsed feed to text posts
// attributed to the feed's author and work. Items without a link or title are
// skipped.
func ItemsToPosts(feed *gofeed.Feed, fc config.Feed) []content.Post {
	name := SourceName(fc)
	author := fc.AuthorID
	if author == "" {
		author = name
	}

	var posts []content.Post
	for _, item := range feed.Items {
		if len(posts) >= maxPerFeed {
			break
		}
		if p, ok := itemToPost(item, name, author, fc); ok {
			posts = append(posts, p)
		}
	}
	return posts
}

func itemToPost(item *gofeed.Item, source, author string, fc config.Feed) (content.Post, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return content.Post{}, false
	}

	var date string
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		date = item.UpdatedParsed.Format("2006-01-02")
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	tags := append([]string{}, fc.Tags...)
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	p := content.Post{
		ID:       PostID(source, link),
		WorkID:   fc.WorkID,
		AuthorID: author,
		Type:     content.TypeText,
		Date:     date,
		Tags:     tags,
		Link:     link,
	}
	if body != "" {
		p.Content = &content.Body{HTML: body}
	}
	return p, true
}

// PostID derives a stable post id from the source name and item link.
func PostID(source, link string) string {
	return fmt.Sprintf("%s-%08x", slug(source), prng.Hash(link))
}

// SourceName returns the configured feed name, or one derived from its host.
func SourceName(fc config.Feed) string {
	if fc.Name != "" {
		return slug(fc.Name)
	}
	return slug(extractSourceName(fc.URL))
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return host
}
