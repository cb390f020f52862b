package popularity

import (
	"math"
	"testing"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/prng"
)

func TestNormalizeAnchoredAndMissing(t *testing.T) {
	rated := Normalize([]content.Work{
		{ID: "A", PopularityRaw: content.N(100), PopularityReferenceMax: content.N(1000), PopularityScale: ScaleRatio},
		{ID: "B"},
	})

	if rated[0].PopularityScore != 1.9 {
		t.Errorf("expected A score 1.9, got %v", rated[0].PopularityScore)
	}
	if rated[1].PopularityScore != 5 {
		t.Errorf("expected B score 5, got %v", rated[1].PopularityScore)
	}
	if rated[1].VisibilityAdjustment != 1 || rated[1].PopularityFinal != 5 {
		t.Errorf("expected B defaults (1, 5), got (%v, %v)", rated[1].VisibilityAdjustment, rated[1].PopularityFinal)
	}
}

func TestNormalizeSharedPopulation(t *testing.T) {
	rated := ByID(Normalize([]content.Work{
		{ID: "low", PopularityRaw: content.N(10)},
		{ID: "high", PopularityRaw: content.N(1000)},
		{ID: "mid", PopularityRaw: content.N(100), VisibilityAdjustment: content.N(1.5)},
		// Anchored works stay out of the shared range.
		{ID: "anchored", PopularityRaw: content.N(1e9), PopularityReferenceMax: content.N(1e9)},
	}))

	if got := rated["low"].PopularityScore; got != 1 {
		t.Errorf("expected low score 1, got %v", got)
	}
	if got := rated["high"].PopularityScore; got != 10 {
		t.Errorf("expected high score 10, got %v", got)
	}
	if got := rated["mid"].PopularityScore; got != 5.5 {
		t.Errorf("expected mid score 5.5, got %v", got)
	}
	if got := rated["mid"].PopularityFinal; got != 8.3 {
		t.Errorf("expected mid final 8.3, got %v", got)
	}
	if got := rated["anchored"].PopularityScore; got != 10 {
		t.Errorf("expected anchored score 10, got %v", got)
	}
}

func TestNormalizeLogScale(t *testing.T) {
	rated := Normalize([]content.Work{
		{ID: "log", PopularityRaw: content.N(100), PopularityReferenceMax: content.N(10000), PopularityScale: ScaleLog},
		{ID: "tiny-anchor", PopularityRaw: content.N(3), PopularityReferenceMax: content.N(0.5), PopularityScale: ScaleLog},
		{ID: "tiny-ratio", PopularityRaw: content.N(3), PopularityReferenceMax: content.N(0.5)},
		{ID: "over", PopularityRaw: content.N(5000), PopularityReferenceMax: content.N(1000)},
	})

	want := []float64{5.5, 10, 10, 10}
	for i, w := range want {
		if rated[i].PopularityScore != w {
			t.Errorf("%s: expected %v, got %v", rated[i].ID, w, rated[i].PopularityScore)
		}
	}
}

func TestNormalizeSinglePopulationMember(t *testing.T) {
	rated := Normalize([]content.Work{{ID: "only", PopularityRaw: content.N(42)}})
	if rated[0].PopularityScore != 10 {
		t.Errorf("expected zero log range to score 10, got %v", rated[0].PopularityScore)
	}
}

func TestNormalizeMalformedInputs(t *testing.T) {
	rated := Normalize([]content.Work{
		{ID: "neg", PopularityRaw: content.N(-5)},
		{ID: "nan", PopularityRaw: content.N(math.NaN()), VisibilityAdjustment: content.N(math.Inf(1))},
		{ID: "anchor-only", PopularityReferenceMax: content.N(100)},
		{ID: "zero-adjust", PopularityRaw: content.N(7), VisibilityAdjustment: content.N(0)},
	})

	for _, w := range rated[:3] {
		if w.PopularityScore != 5 {
			t.Errorf("%s: expected neutral score 5, got %v", w.ID, w.PopularityScore)
		}
		if w.VisibilityAdjustment != 1 {
			t.Errorf("%s: expected default adjustment 1, got %v", w.ID, w.VisibilityAdjustment)
		}
	}
	if rated[3].PopularityFinal != 1 {
		t.Errorf("expected zero adjustment to clamp final to 1, got %v", rated[3].PopularityFinal)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	works := []content.Work{{ID: "w", PopularityRaw: content.N(10)}}
	Normalize(works)
	if works[0].VisibilityAdjustment.Set {
		t.Error("expected input work to be left untouched")
	}
}

func TestNormalizeBounds(t *testing.T) {
	next := prng.New("popularity-bounds")
	var works []content.Work
	for i := 0; i < 500; i++ {
		w := content.Work{ID: string(rune('a' + i%26))}
		if next() < 0.8 {
			w.PopularityRaw = content.N(math.Pow(10, next()*8) - 1)
		}
		if next() < 0.3 {
			w.PopularityReferenceMax = content.N(math.Pow(10, next()*6))
		}
		if next() < 0.2 {
			w.PopularityScale = ScaleLog
		}
		if next() < 0.4 {
			w.VisibilityAdjustment = content.N(next() * 3)
		}
		works = append(works, w)
	}

	for _, w := range Normalize(works) {
		for _, v := range []float64{w.PopularityScore, w.PopularityFinal} {
			if v < 1 || v > 10 {
				t.Fatalf("%s: value %v out of [1,10]", w.ID, v)
			}
			if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
				t.Fatalf("%s: value %v has more than one decimal", w.ID, v)
			}
		}
	}
}

func TestRound1(t *testing.T) {
	cases := map[float64]float64{8.25: 8.3, 1.04: 1, 9.96: 10, 1.9: 1.9}
	for in, want := range cases {
		if got := Round1(in); got != want {
			t.Errorf("Round1(%v): expected %v, got %v", in, want, got)
		}
	}
}
