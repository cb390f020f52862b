package search

import (
	"reflect"
	"testing"

	"github.com/TobiSchelling/folio/internal/content"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Gödel's  Incompleteness!": "godels incompleteness",
		"  Euler\t\n(1707–1783) ":  "euler 17071783",
		"ÉCOLE   Normale":          "ecole normale",
		"π ≈ 3.14159":              "π 314159",
		"":                         "",
		"?!...":                    "",
		"Noether's Théorème, II":   "noethers theoreme ii",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Gödel's  Incompleteness!",
		"ΑΣ-Α ΟΔΟΣ",
		"İstanbul Ǆ ǅ",
		"Straße ﬁnite",
		"日本語のテキスト、数学。",
		"  mixed spaces here ",
		"x² + y² = z²",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestBuildIndexAndMatch(t *testing.T) {
	authors := content.AuthorsByID([]content.Author{{ID: "a1", Name: "Évariste Galois"}})
	posts := []content.Post{
		{
			ID: "p1", AuthorID: "a1", Tags: []string{"Group Theory"},
			Content: &content.Body{HTML: "<p>On the <em>solvability</em> of equations.</p>"},
			Work:    &content.RatedWork{Work: content.Work{Title: "Mémoire"}},
		},
		{ID: "p2", AuthorID: "nobody", Type: content.TypeImage, Caption: "<b>A</b> torus", Tags: []string{"topology"}},
	}

	docs := BuildIndex(posts, authors)
	if docs[0].Text != "on the solvability of equations group theory memoire evariste galois" {
		t.Errorf("unexpected document text: %q", docs[0].Text)
	}
	if docs[1].Text != "a torus topology" {
		t.Errorf("unexpected caption document: %q", docs[1].Text)
	}

	checks := map[string][]string{
		"GALOIS":        {"p1"},
		"mémoire":       {"p1"},
		"torus":         {"p2"},
		"o":             {"p1", "p2"},
		"  ":            nil,
		"nonexistent":   nil,
		"group theory!": {"p1"},
	}
	for q, want := range checks {
		if got := Match(docs, q); !reflect.DeepEqual(got, want) {
			t.Errorf("Match(%q): expected %v, got %v", q, want, got)
		}
	}
}
