// Package feed assembles the browsing order of posts.
//
// Posts are grouped by work and interleaved round-robin so no single work
// dominates a stretch of the feed. The rotation indexes into the groups that
// still have posts left, so an exhausted group shifts the positions of the
// groups after it.
package feed

import (
	"fmt"
	"math/rand"

	"github.com/TobiSchelling/folio/internal/content"
)

type group struct {
	posts []content.Post
	next  int
}

// Build returns every post exactly once, interleaving works round-robin
// while keeping each work's posts in input order. Posts without a work form
// groups of their own.
func Build(posts []content.Post) []content.Post {
	var groups []*group
	byWork := make(map[string]*group)
	for _, p := range posts {
		if p.WorkID == "" {
			groups = append(groups, &group{posts: []content.Post{p}})
			continue
		}
		g, ok := byWork[p.WorkID]
		if !ok {
			g = &group{}
			byWork[p.WorkID] = g
			groups = append(groups, g)
		}
		g.posts = append(g.posts, p)
	}

	result := make([]content.Post, 0, len(posts))
	active := groups
	for step := 0; len(active) > 0; step++ {
		g := active[step%len(active)]
		result = append(result, g.posts[g.next])
		g.next++

		if g.next == len(g.posts) {
			active = remaining(active)
		}
	}
	return result
}

// remaining returns the groups that still have posts, in order.
func remaining(groups []*group) []*group {
	out := make([]*group, 0, len(groups))
	for _, g := range groups {
		if g.next < len(g.posts) {
			out = append(out, g)
		}
	}
	return out
}

// Initialize builds the feed and rotates it to start at a random position.
// rnd supplies floats in [0,1); nil uses the process-wide source, so the
// starting point differs between calls.
func Initialize(posts []content.Post, rnd func() float64) []content.Post {
	ordered := Build(posts)
	if len(ordered) == 0 {
		return ordered
	}
	if rnd == nil {
		rnd = rand.Float64
	}

	start := int(rnd() * float64(len(ordered)))
	rotated := make([]content.Post, 0, len(ordered))
	rotated = append(rotated, ordered[start:]...)
	return append(rotated, ordered[:start]...)
}

// Entry places a post in a browsing sequence. Key is unique within a Pager
// even though posts repeat across batches.
type Entry struct {
	Key  string       `json:"key"`
	Post content.Post `json:"post"`
}

// Pager hands out an endless feed: a randomly rotated first batch, then a
// fresh full Build pass for every "load more". Not safe for concurrent use.
type Pager struct {
	posts []content.Post
	rnd   func() float64
	seq   int
}

// NewPager returns a pager over posts. rnd is passed to Initialize.
func NewPager(posts []content.Post, rnd func() float64) *Pager {
	return &Pager{posts: posts, rnd: rnd}
}

// Start returns the first batch.
func (p *Pager) Start() []Entry {
	return p.entries(Initialize(p.posts, p.rnd))
}

// More returns the next batch.
func (p *Pager) More() []Entry {
	return p.entries(Build(p.posts))
}

// Pages returns Start followed by n-1 calls to More.
func (p *Pager) Pages(n int) []Entry {
	if n < 1 {
		return nil
	}
	entries := p.Start()
	for i := 1; i < n; i++ {
		entries = append(entries, p.More()...)
	}
	return entries
}

func (p *Pager) entries(posts []content.Post) []Entry {
	out := make([]Entry, len(posts))
	for i, post := range posts {
		p.seq++
		out[i] = Entry{Key: fmt.Sprintf("%s:%d", post.ID, p.seq), Post: post}
	}
	return out
}
