package poll

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/prng"
)

// DefaultShowChance is the share of posts whose poll is shown in a session.
const DefaultShowChance = 0.15

// Result is a simulated vote distribution. Counts always sum to TotalVotes.
type Result struct {
	TotalVotes  int        `json:"totalVotes"`
	Counts      [3]int     `json:"counts"`
	Percentages [3]float64 `json:"percentages"`
}

// bands are the [lo, hi) shares of votes for the correct option.
var bands = map[string][2]float64{
	content.DifficultyEasy:   {0.55, 0.70},
	content.DifficultyMedium: {0.70, 0.85},
	content.DifficultyHard:   {0.85, 1.00},
}

// Session scopes simulated poll state to one viewing session: the same
// session gives the same answers, a new session gives new ones. Create one
// per process and share it read-only.
type Session struct {
	Seed string
}

// NewSession returns a session with a fresh random seed.
func NewSession() Session {
	return Session{Seed: strings.ReplaceAll(uuid.NewString(), "-", "")}
}

// ShouldRender reports whether the poll of postID is shown in this session.
func (s Session) ShouldRender(postID string, chance float64) bool {
	if postID == "" {
		return false
	}
	next := prng.New(s.Seed + ":" + postID + ":show")
	return next() < chance
}

// Results simulates the votes cast on a post's poll in this session. An out
// of range correct index is clamped and an unknown difficulty is treated as
// medium.
func (s Session) Results(postID string, p content.Poll) Result {
	correct := min(max(p.CorrectIndex, 0), optionCount-1)
	difficulty := p.Difficulty
	band, ok := bands[difficulty]
	if !ok {
		difficulty = content.DifficultyMedium
		band = bands[difficulty]
	}

	next := prng.New(fmt.Sprintf("%s:%s:%d:%s:results", s.Seed, postID, correct, difficulty))

	total := 90 + prng.Intn(next, 900)
	share := band[0] + next()*(band[1]-band[0])
	correctVotes := int(float64(total) * share)
	remaining := total - correctVotes
	firstWrong := int(float64(remaining) * next())

	var r Result
	r.TotalVotes = total
	r.Counts[correct] = correctVotes
	wrong := 0
	for i := 0; i < optionCount; i++ {
		if i == correct {
			continue
		}
		if wrong == 0 {
			r.Counts[i] = firstWrong
		} else {
			r.Counts[i] = remaining - firstWrong
		}
		wrong++
	}
	for i, c := range r.Counts {
		r.Percentages[i] = float64(c) / float64(total) * 100
	}
	return r
}
