// Package content holds the records the engine reads (works, posts, authors)
// and the fields it derives for them, plus loading and writing of the JSON
// content directory.
package content

// Post types.
const (
	TypeText  = "text"
	TypeImage = "image"
)

// Translation describes how a work reached its current language.
type Translation struct {
	Type       string `json:"type"` // "human_translated" or "machine_translated"
	Translator string `json:"translator,omitempty"`
}

// Work is a source document that posts are excerpted from.
type Work struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	PopularityRaw          Number       `json:"popularity_raw"`
	PopularityReferenceMax Number       `json:"popularity_reference_max"`
	PopularityScale        string       `json:"popularity_scale,omitempty"`
	VisibilityAdjustment   Number       `json:"visibility_adjustment"`
	Translation            *Translation `json:"translation,omitempty"`
}

// Attribution returns the translation credit shown next to the work title,
// or "" when none applies.
func (w Work) Attribution() string {
	if w.Translation == nil {
		return ""
	}
	switch w.Translation.Type {
	case "human_translated":
		if w.Translation.Translator != "" {
			return "Trans. " + w.Translation.Translator
		}
	case "machine_translated":
		return "Machine translated"
	}
	return ""
}

// RatedWork is a Work annotated with its normalized popularity.
type RatedWork struct {
	Work
	VisibilityAdjustment float64 `json:"visibility_adjustment"`
	PopularityScore      float64 `json:"popularity_score"`
	PopularityFinal      float64 `json:"popularity_final"`
}

// Body is the text of a post. HTML wins over Markdown when both are set.
type Body struct {
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Metrics are the simulated engagement counters of a post.
type Metrics struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// Poll difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Difficulties is the closed set of poll difficulties, in hash order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Poll is a three-option quiz attached to a post.
type Poll struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Difficulty   string   `json:"difficulty"`
}

// Post is a short text or image excerpt attributed to an author.
type Post struct {
	ID       string     `json:"id"`
	WorkID   string     `json:"work_id,omitempty"`
	AuthorID string     `json:"author_id"`
	Type     string     `json:"type,omitempty"`
	Date     string     `json:"date,omitempty"`
	Tags     []string   `json:"tags"`
	Content  *Body      `json:"content,omitempty"`
	Image    string     `json:"image,omitempty"`
	Caption  string     `json:"caption,omitempty"`
	Link     string     `json:"link,omitempty"`
	Poll     *Poll      `json:"poll,omitempty"`
	Metrics  *Metrics   `json:"metrics,omitempty"`
	Work     *RatedWork `json:"work,omitempty"`
}

// IsImage reports whether the post renders as an image post.
func (p Post) IsImage() bool {
	return p.Type == TypeImage || p.Image != ""
}

// HTML returns the post body as HTML: the body for text posts, the caption
// for image posts.
func (p Post) HTML() string {
	if p.Content != nil && p.Content.HTML != "" {
		return p.Content.HTML
	}
	return p.Caption
}

// Author is a person posts are attributed to.
type Author struct {
	ID    string `json:"author_id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

// Set is a fully materialized content collection.
type Set struct {
	Works   []Work
	Posts   []Post
	Authors []Author
}

// AuthorsByID indexes authors by id.
func AuthorsByID(authors []Author) map[string]Author {
	m := make(map[string]Author, len(authors))
	for _, a := range authors {
		m[a.ID] = a
	}
	return m
}
