// Package poll builds, validates and simulates the three-option quiz polls
// attached to posts.
package poll

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/prng"
)

// FallbackTag is the correct answer for posts without tags.
const FallbackTag = "mathematics"

const optionCount = 3

var questions = map[string]string{
	content.DifficultyEasy: "Which topic is central to this math excerpt?",
	content.DifficultyHard: "Which concept is most directly referenced in this passage?",
}

const defaultQuestion = "Which tag best matches the main mathematical idea in this post?"

// NormalizeTag trims and lowercases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Vocabulary returns the sorted set of normalized, non-empty tags across posts.
func Vocabulary(posts []content.Post) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range posts {
		for _, t := range p.Tags {
			t = NormalizeTag(t)
			if t != "" && !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Difficulty returns the difficulty assigned to a post id.
func Difficulty(postID string) string {
	return content.Difficulties[prng.Hash(postID+":difficulty")%uint32(len(content.Difficulties))]
}

// Question returns the question text for a difficulty.
func Question(difficulty string) string {
	if q, ok := questions[difficulty]; ok {
		return q
	}
	return defaultQuestion
}

// Generate builds the poll of a post from the global tag vocabulary. The
// result depends only on the post id, its tags and the vocabulary, and
// always has three options.
func Generate(p content.Post, vocabulary []string) content.Poll {
	next := prng.New(seedOf(p))

	var tags []string
	for _, t := range p.Tags {
		if t = NormalizeTag(t); t != "" {
			tags = append(tags, t)
		}
	}
	correct := FallbackTag
	if len(tags) > 0 {
		correct = tags[0]
	}
	difficulty := Difficulty(p.ID)

	own := make(map[string]bool, len(tags))
	for _, t := range tags {
		own[t] = true
	}
	var strict, loose []string
	for _, t := range vocabulary {
		if t == correct {
			continue
		}
		loose = append(loose, t)
		if !own[t] {
			strict = append(strict, t)
		}
	}
	pool := strict
	if len(pool) < optionCount-1 {
		pool = loose
	}

	distractors := pickUnique(pool, optionCount-1, next)
	for len(distractors) < optionCount-1 {
		distractors = append(distractors, fmt.Sprintf("topic %d", len(distractors)+1))
	}

	options := append([]string{correct}, distractors...)
	for i := len(options) - 1; i > 0; i-- {
		j := prng.Intn(next, i+1)
		options[i], options[j] = options[j], options[i]
	}

	correctIndex := 0
	for i, o := range options {
		if o == correct {
			correctIndex = i
			break
		}
	}

	return content.Poll{
		Question:     Question(difficulty),
		Options:      options,
		CorrectIndex: correctIndex,
		Difficulty:   difficulty,
	}
}

// Attach returns copies of posts with polls. Posts that already carry a poll
// keep it unless regenerate is set, so a post's poll is generated once and
// then stays a fixed artifact of that post.
func Attach(posts []content.Post, vocabulary []string, regenerate bool) []content.Post {
	out := make([]content.Post, len(posts))
	for i, p := range posts {
		if p.Poll == nil || regenerate {
			poll := Generate(p, vocabulary)
			p.Poll = &poll
		}
		out[i] = p
	}
	return out
}

// pickUnique draws up to count distinct items without replacement.
func pickUnique(items []string, count int, next func() float64) []string {
	seen := make(map[string]bool, len(items))
	var pool []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			pool = append(pool, it)
		}
	}

	var picked []string
	for len(pool) > 0 && len(picked) < count {
		i := prng.Intn(next, len(pool))
		picked = append(picked, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return picked
}

// seedOf is the post id, or the post's JSON encoding when the id is empty.
func seedOf(p content.Post) string {
	if p.ID != "" {
		return p.ID
	}
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}
