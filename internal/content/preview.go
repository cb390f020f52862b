package content

import (
	"regexp"
	"strings"
)

// DefaultPreviewWords is the word budget of feed previews.
const DefaultPreviewWords = 14

var mathSpan = regexp.MustCompile(`\\\([\s\S]*?\\\)|\\\[[\s\S]*?\\\]`)

// Preview returns the first maxWords words of an HTML fragment. Inline
// \( \) and display \[ \] math spans are kept whole: a span that does not fit
// the remaining budget ends the preview. "..." is appended when anything
// was cut.
func Preview(fragment string, maxWords int) string {
	text := StripHTML(fragment)
	if text == "" {
		return ""
	}

	var tokens []string
	used := 0
	truncated := false

	for _, part := range splitMath(text) {
		if used >= maxWords {
			truncated = true
			break
		}

		if !part.math {
			words := strings.Fields(part.value)
			remaining := maxWords - used
			if len(words) > remaining {
				tokens = append(tokens, words[:remaining]...)
				used += remaining
				truncated = true
				break
			}
			tokens = append(tokens, words...)
			used += len(words)
			continue
		}

		n := len(strings.Fields(trimMathDelimiters(part.value)))
		if used+n > maxWords {
			truncated = true
			break
		}
		tokens = append(tokens, part.value)
		used += n
	}

	preview := strings.TrimSpace(strings.Join(tokens, " "))
	if preview == "" {
		return ""
	}
	if truncated {
		return preview + "..."
	}
	return preview
}

type textPart struct {
	value string
	math  bool
}

func splitMath(text string) []textPart {
	var parts []textPart
	last := 0
	for _, loc := range mathSpan.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			parts = append(parts, textPart{value: text[last:loc[0]]})
		}
		parts = append(parts, textPart{value: text[loc[0]:loc[1]], math: true})
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, textPart{value: text[last:]})
	}
	return parts
}

func trimMathDelimiters(s string) string {
	for _, d := range [][2]string{{`\(`, `\)`}, {`\[`, `\]`}} {
		if strings.HasPrefix(s, d[0]) && strings.HasSuffix(s, d[1]) {
			return s[len(d[0]) : len(s)-len(d[1])]
		}
	}
	return s
}
