package poll

import (
	"fmt"
	"slices"
	"strings"

	"github.com/TobiSchelling/folio/internal/content"
)

// ShapeError reports a post whose poll is malformed. It is meant to stop a
// content build, not to be recovered from.
type ShapeError struct {
	PostID string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.PostID == "" {
		return "invalid post: " + e.Reason
	}
	return fmt.Sprintf("invalid poll for post %s: %s", e.PostID, e.Reason)
}

// IsValid reports whether a poll is well formed.
func IsValid(p *content.Poll) bool {
	return checkPoll(p) == ""
}

// AssertPostPollShape returns a *ShapeError when the post or its poll is
// malformed.
func AssertPostPollShape(p *content.Post) error {
	if p == nil {
		return &ShapeError{Reason: "expected object"}
	}
	if strings.TrimSpace(p.ID) == "" {
		return &ShapeError{Reason: "missing id"}
	}
	if reason := checkPoll(p.Poll); reason != "" {
		return &ShapeError{PostID: p.ID, Reason: reason}
	}
	return nil
}

// ValidateAll checks every post and stops at the first failure. It returns
// the number of posts validated.
func ValidateAll(posts []content.Post) (int, error) {
	for i := range posts {
		if err := AssertPostPollShape(&posts[i]); err != nil {
			return i, err
		}
	}
	return len(posts), nil
}

func checkPoll(p *content.Poll) string {
	switch {
	case p == nil:
		return "missing poll"
	case strings.TrimSpace(p.Question) == "":
		return "question must be a non-empty string"
	case len(p.Options) != optionCount:
		return fmt.Sprintf("expected %d options, got %d", optionCount, len(p.Options))
	case p.CorrectIndex < 0 || p.CorrectIndex >= optionCount:
		return fmt.Sprintf("correctIndex %d out of range", p.CorrectIndex)
	case !slices.Contains(content.Difficulties, p.Difficulty):
		return fmt.Sprintf("unknown difficulty %q", p.Difficulty)
	}
	for i, o := range p.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Sprintf("option %d is empty", i)
		}
	}
	return ""
}
