package engagement

import (
	"math"
	"testing"

	"github.com/TobiSchelling/folio/internal/content"
)

func score(v float64) *float64 { return &v }

func TestGenerateKnownValues(t *testing.T) {
	cases := []struct {
		post  content.Post
		score *float64
		want  content.Metrics
	}{
		{content.Post{ID: "p1", WorkID: "w1"}, score(5), content.Metrics{Likes: 649, Shares: 114, Comments: 41}},
		{content.Post{ID: "p1"}, score(7.3), content.Metrics{Likes: 1768, Shares: 294, Comments: 104}},
		{content.Post{ID: "p1", WorkID: "w1"}, score(10), content.Metrics{Likes: 2717, Shares: 586, Comments: 226}},
	}
	for _, c := range cases {
		if got := Generate(c.post, c.score); got != c.want {
			t.Errorf("%s/%s: expected %+v, got %+v", c.post.ID, c.post.WorkID, c.want, got)
		}
	}
}

func TestGenerateMissingScoreIsNeutral(t *testing.T) {
	p := content.Post{ID: "p1", WorkID: "w1"}
	neutral := Generate(p, score(5))
	if got := Generate(p, nil); got != neutral {
		t.Errorf("expected nil score to match score 5, got %+v vs %+v", got, neutral)
	}
	if got := Generate(p, score(math.NaN())); got != neutral {
		t.Errorf("expected NaN score to match score 5, got %+v vs %+v", got, neutral)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	p := content.Post{ID: "euclid-1-47", WorkID: "elements"}
	first := Generate(p, score(8.1))
	for i := 0; i < 10; i++ {
		if got := Generate(p, score(8.1)); got != first {
			t.Fatalf("expected identical metrics, got %+v vs %+v", got, first)
		}
	}
}

func TestGenerateFloor(t *testing.T) {
	for i := 0; i < 500; i++ {
		p := content.Post{ID: string(rune('a'+i%26)) + string(rune('0'+i%10)), WorkID: "w"}
		for _, s := range []float64{-3, 0, 1, 4.2, 10, 99} {
			m := Generate(p, score(s))
			if m.Likes < 1 || m.Shares < 1 || m.Comments < 1 {
				t.Fatalf("%s at %v: counters below 1: %+v", p.ID, s, m)
			}
		}
	}
}

func TestSeed(t *testing.T) {
	if got := Seed(content.Post{ID: "p"}); got != "p:no_work" {
		t.Errorf("expected 'p:no_work', got %q", got)
	}
	if got := Seed(content.Post{ID: "p", WorkID: "w"}); got != "p:w" {
		t.Errorf("expected 'p:w', got %q", got)
	}
}

func TestAttach(t *testing.T) {
	works := map[string]content.RatedWork{
		"w1": {Work: content.Work{ID: "w1", Title: "Elements"}, PopularityFinal: 10},
	}
	posts := []content.Post{{ID: "p1", WorkID: "w1"}, {ID: "p2", WorkID: "missing"}}

	out := Attach(posts, works)
	if out[0].Work == nil || out[0].Work.Title != "Elements" {
		t.Fatal("expected rated work to be attached")
	}
	if *out[0].Metrics != Generate(posts[0], score(10)) {
		t.Errorf("expected metrics from final popularity 10, got %+v", *out[0].Metrics)
	}
	if out[1].Work != nil {
		t.Error("expected unknown work to stay nil")
	}
	if *out[1].Metrics != Generate(posts[1], nil) {
		t.Errorf("expected neutral metrics for unknown work, got %+v", *out[1].Metrics)
	}
	if posts[0].Metrics != nil {
		t.Error("expected input posts to be left untouched")
	}
}
