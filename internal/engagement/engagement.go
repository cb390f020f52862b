// Package engagement simulates like, share and comment counters for posts.
package engagement

import (
	"math"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/popularity"
	"github.com/TobiSchelling/folio/internal/prng"
)

const defaultScore = 5

// Seed returns the generator seed for a post's metrics.
func Seed(p content.Post) string {
	workID := p.WorkID
	if workID == "" {
		workID = "no_work"
	}
	return p.ID + ":" + workID
}

// Generate derives metrics for a post from its work's final popularity. A
// nil or NaN score counts as 5. The result depends only on the post id, the
// work id and the score; every counter is at least 1.
func Generate(p content.Post, popularityFinal *float64) content.Metrics {
	score := float64(defaultScore)
	if popularityFinal != nil && !math.IsNaN(*popularityFinal) {
		score = *popularityFinal
	}
	score = popularity.Clamp(score, 1, 10)

	next := prng.New(Seed(p))

	baseLikes := 60 + math.Pow(score, 2.15)*24
	likes := atLeastOne(baseLikes * (0.7 + next()*0.9))

	shareRate := 0.06 + score*0.008 + next()*0.08
	commentRate := 0.02 + score*0.004 + next()*0.05

	return content.Metrics{
		Likes:    likes,
		Shares:   atLeastOne(float64(likes) * shareRate),
		Comments: atLeastOne(float64(likes) * commentRate),
	}
}

// Attach returns copies of posts with metrics and their rated work filled
// in. Posts whose work is unknown keep a nil Work and score as 5.
func Attach(posts []content.Post, works map[string]content.RatedWork) []content.Post {
	out := make([]content.Post, len(posts))
	for i, p := range posts {
		var final *float64
		p.Work = nil
		if w, ok := works[p.WorkID]; ok && p.WorkID != "" {
			p.Work = &w
			final = &w.PopularityFinal
		}
		m := Generate(p, final)
		p.Metrics = &m
		out[i] = p
	}
	return out
}

func atLeastOne(v float64) int {
	return max(1, int(math.Floor(v+0.5)))
}
