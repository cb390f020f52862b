package content

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

var md = goldmark.New()

// RenderMarkdown converts markdown to HTML. On failure the escaped source is
// returned.
func RenderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return html.EscapeString(text)
	}
	return buf.String()
}

// renderBody fills in Content.HTML from Content.Markdown when only markdown
// was authored.
func renderBody(p *Post) {
	if p.Content == nil || p.Content.HTML != "" || p.Content.Markdown == "" {
		return
	}
	p.Content.HTML = strings.TrimSpace(RenderMarkdown(p.Content.Markdown))
}

// StripHTML returns the text of an HTML fragment with tags replaced by
// spaces and whitespace collapsed.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return NormalizeWhitespace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
