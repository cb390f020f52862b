// Package popularity converts heterogeneous popularity signals of works into
// a common 1-10 score.
//
// Normalization is relative to the whole population of works: a work without
// an anchored reference maximum is scored on the log10 range spanned by every
// other un-anchored work. Adding or removing a work can therefore move every
// other score, and Normalize must always see the complete set.
package popularity

import (
	"math"

	"github.com/TobiSchelling/folio/internal/content"
)

// Scales.
const (
	ScaleLog   = "log"
	ScaleRatio = "ratio"
)

const (
	minScore     = 1
	maxScore     = 10
	neutralScore = 5
)

// logRange is the shared log10 range of the un-anchored population.
type logRange struct {
	min, max float64
	ok       bool
}

// Normalize scores every work and returns annotated copies in input order.
// It never fails: missing or malformed numbers fall back to a neutral score
// of 5 and a visibility adjustment of 1.
func Normalize(works []content.Work) []content.RatedWork {
	shared := populationRange(works)

	rated := make([]content.RatedWork, len(works))
	for i, w := range works {
		score := Round1(Clamp(rawScore(w, shared), minScore, maxScore))

		adjustment := 1.0
		if w.VisibilityAdjustment.Finite() {
			adjustment = w.VisibilityAdjustment.Value
		}

		rated[i] = content.RatedWork{
			Work:                 w,
			VisibilityAdjustment: adjustment,
			PopularityScore:      score,
			PopularityFinal:      Round1(Clamp(score*adjustment, minScore, maxScore)),
		}
	}
	return rated
}

// ByID indexes rated works by id. The map is not modified afterwards and can
// be shared between readers.
func ByID(rated []content.RatedWork) map[string]content.RatedWork {
	m := make(map[string]content.RatedWork, len(rated))
	for _, w := range rated {
		m[w.ID] = w
	}
	return m
}

func populationRange(works []content.Work) logRange {
	var r logRange
	for _, w := range works {
		if w.PopularityReferenceMax.Positive() || !w.PopularityRaw.Positive() {
			continue
		}
		v := math.Log10(w.PopularityRaw.Value)
		if !r.ok {
			r = logRange{min: v, max: v, ok: true}
			continue
		}
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	return r
}

func rawScore(w content.Work, shared logRange) float64 {
	hasRaw := w.PopularityRaw.Positive()
	hasAnchor := w.PopularityReferenceMax.Positive()

	switch {
	case hasRaw && hasAnchor:
		raw := w.PopularityRaw.Value
		anchor := w.PopularityReferenceMax.Value
		clamped := Clamp(raw, 1, anchor)

		if scaleOf(w) == ScaleLog {
			anchorLog := math.Log10(anchor)
			if anchorLog <= 0 {
				return maxScore
			}
			return 1 + 9*math.Log10(clamped)/anchorLog
		}
		return 1 + 9*clamped/anchor

	case hasRaw && shared.ok:
		span := shared.max - shared.min
		if span <= 0 {
			return maxScore
		}
		return 1 + 9*(math.Log10(w.PopularityRaw.Value)-shared.min)/span
	}

	return neutralScore
}

// scaleOf returns the effective scale: the declared one, else ratio for
// anchored works and log otherwise. Any declared value other than "log"
// scores as a ratio.
func scaleOf(w content.Work) string {
	if w.PopularityScale != "" {
		return w.PopularityScale
	}
	if w.PopularityReferenceMax.Positive() {
		return ScaleRatio
	}
	return ScaleLog
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Round1 rounds to one decimal, halves rounding up.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
