// Package fetch fills in the body of collected posts whose feed item carried
// no usable text, by downloading the linked page and extracting its readable
// content.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/sony/gobreaker/v2"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/logging"
)

// minTextLength is the shortest extracted text accepted as a post body.
const minTextLength = 100

const userAgent = "folio/1.0 (content collector)"

// Result holds the results of a content fetch run.
type Result struct {
	Fetched           int
	AlreadyHadContent int
	Failed            int
}

// Fetcher fetches full article text via HTTP + readability extraction.
type Fetcher struct {
	client *http.Client
}

// New creates a fetcher with the given per-request timeout.
func New(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// NeedsBody reports whether a post has a link but no text to show.
func NeedsBody(p content.Post) bool {
	if p.Link == "" || p.IsImage() {
		return false
	}
	return content.StripHTML(p.HTML()) == ""
}

// FillMissing returns copies of posts with empty bodies filled from their
// links. After an HTTP error status the rest of that domain is skipped.
func (f *Fetcher) FillMissing(ctx context.Context, posts []content.Post) ([]content.Post, *Result) {
	out := make([]content.Post, len(posts))
	result := &Result{}
	breakers := make(map[string]*gobreaker.CircuitBreaker[string])

	for i, p := range posts {
		out[i] = p
		if !NeedsBody(p) {
			result.AlreadyHadContent++
			continue
		}

		domain := ""
		if u, err := url.Parse(p.Link); err == nil {
			domain = strings.ToLower(u.Host)
		}
		cb, ok := breakers[domain]
		if !ok {
			cb = newBreaker(domain)
			breakers[domain] = cb
		}

		text, err := cb.Execute(func() (string, error) {
			return f.fetchText(ctx, p.Link)
		})
		if err != nil {
			result.Failed++
			var he *httpError
			switch {
			case errors.Is(err, gobreaker.ErrOpenState):
			case errors.As(err, &he):
				logging.Warn().Str("url", p.Link).Int("status", he.code).Msg("skipping remaining posts from domain")
			default:
				logging.Debug().Err(err).Str("url", p.Link).Msg("fetch failed")
			}
			continue
		}
		if len(text) <= minTextLength {
			result.Failed++
			logging.Debug().Str("url", p.Link).Msg("no extractable content")
			continue
		}

		out[i].Content = &content.Body{HTML: paragraphs(text)}
		result.Fetched++
		logging.Info().Str("post", p.ID).Msg("fetched content")
	}

	logging.Info().Int("fetched", result.Fetched).Int("failed", result.Failed).Msg("content fetch complete")
	return out, result
}

func (f *Fetcher) fetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", pageURL, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

// paragraphs turns extracted plain text into escaped HTML paragraphs, one per
// non-blank line.
func paragraphs(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// newBreaker returns a breaker that opens on the first HTTP error status
// from a domain and stays open for the rest of the run. Transport and
// extraction errors do not count against the domain.
func newBreaker(domain string) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    domain,
		Timeout: time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			var he *httpError
			return !errors.As(err, &he)
		},
	})
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
