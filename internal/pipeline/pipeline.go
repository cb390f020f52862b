// Package pipeline runs a content build: it loads a content directory,
// derives popularity, engagement and polls, validates the result, and stores
// the index for the feed and search.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/TobiSchelling/folio/internal/config"
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/database"
	"github.com/TobiSchelling/folio/internal/engagement"
	"github.com/TobiSchelling/folio/internal/logging"
	"github.com/TobiSchelling/folio/internal/poll"
	"github.com/TobiSchelling/folio/internal/popularity"
	"github.com/TobiSchelling/folio/internal/search"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	ContentDir string
	Steps      []StepResult
	Index      *database.Index
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// FeedIndex is the JSON document written next to the database.
type FeedIndex struct {
	Posts   []content.Post      `json:"posts"`
	Authors []content.Author    `json:"authors"`
	Works   []content.RatedWork `json:"works"`
}

// Pipeline orchestrates the build steps.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// build carries the intermediate state between steps.
type build struct {
	set   *content.Set
	rated []content.RatedWork
	posts []content.Post
	docs  []search.Document
	polls int
}

// Run executes every step in order. Loading and validation failures stop the
// run before anything is stored.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{ContentDir: p.cfg.Content.Dir}
	b := &build{}
	started := time.Now()

	step := p.runLoad(b)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runNormalize(b))
	r.Steps = append(r.Steps, p.runMetrics(b))
	r.Steps = append(r.Steps, p.runPolls(b))

	step = p.runValidate(b)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runIndex(b))

	r.Index = &database.Index{
		Works:     b.rated,
		Posts:     b.posts,
		Authors:   b.set.Authors,
		Documents: b.docs,
	}
	r.Steps = append(r.Steps, p.runStore(ctx, r.Index, b.polls, time.Since(started)))

	return r
}

// DryRun loads the content and reports what a build would do without
// writing anything.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	r := &Result{ContentDir: p.cfg.Content.Dir}

	set, err := content.LoadDir(p.cfg.Content.Dir)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("[dry-run] %d posts, %d works, %d authors in %s", len(set.Posts), len(set.Works), len(set.Authors), p.cfg.Content.Dir),
	})

	missing := 0
	for _, post := range set.Posts {
		if post.Poll == nil {
			missing++
		}
	}
	action := fmt.Sprintf("%d posts need a generated poll", missing)
	if p.cfg.Polls.Regenerate {
		action = fmt.Sprintf("all %d polls would be regenerated", len(set.Posts))
	}
	r.Steps = append(r.Steps, StepResult{Name: "Polls", Summary: "[dry-run] " + action})

	summary := "[dry-run] no database configured"
	if p.db != nil {
		stats, err := p.db.GetStats(ctx)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
			return r
		}
		summary = fmt.Sprintf("[dry-run] would replace %d stored posts and write %s", stats.Posts, p.cfg.IndexPath())
	}
	r.Steps = append(r.Steps, StepResult{Name: "Store", Summary: summary})

	return r
}

func (p *Pipeline) runLoad(b *build) StepResult {
	logging.Info().Str("dir", p.cfg.Content.Dir).Msg("step 1/7: loading content")
	set, err := content.LoadDir(p.cfg.Content.Dir)
	if err != nil {
		return StepResult{Name: "Load", Err: err}
	}
	b.set = set
	return StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Loaded %d posts, %d works, %d authors", len(set.Posts), len(set.Works), len(set.Authors)),
	}
}

func (p *Pipeline) runNormalize(b *build) StepResult {
	logging.Info().Msg("step 2/7: normalizing popularity")
	b.rated = popularity.Normalize(b.set.Works)
	return StepResult{
		Name:    "Normalize",
		Summary: fmt.Sprintf("Scored %d works", len(b.rated)),
	}
}

func (p *Pipeline) runMetrics(b *build) StepResult {
	logging.Info().Msg("step 3/7: generating engagement")
	b.posts = engagement.Attach(b.set.Posts, popularity.ByID(b.rated))
	linked := 0
	for _, post := range b.posts {
		if post.Work != nil {
			linked++
		}
	}
	return StepResult{
		Name:    "Metrics",
		Summary: fmt.Sprintf("Generated metrics for %d posts (%d linked to a work)", len(b.posts), linked),
	}
}

func (p *Pipeline) runPolls(b *build) StepResult {
	logging.Info().Msg("step 4/7: attaching polls")
	existing := 0
	for _, post := range b.posts {
		if post.Poll != nil {
			existing++
		}
	}
	vocab := poll.Vocabulary(b.posts)
	b.posts = poll.Attach(b.posts, vocab, p.cfg.Polls.Regenerate)
	b.polls = len(b.posts)

	generated := len(b.posts) - existing
	if p.cfg.Polls.Regenerate {
		generated = len(b.posts)
	}
	return StepResult{
		Name:    "Polls",
		Summary: fmt.Sprintf("Generated %d polls from %d tags, kept %d", generated, len(vocab), len(b.posts)-generated),
	}
}

func (p *Pipeline) runValidate(b *build) StepResult {
	logging.Info().Msg("step 5/7: validating polls")
	n, err := poll.ValidateAll(b.posts)
	if err != nil {
		logging.Error().Err(err).Int("validated", n).Msg("poll validation failed")
		return StepResult{Name: "Validate", Err: err}
	}
	return StepResult{
		Name:    "Validate",
		Summary: fmt.Sprintf("Validated %d polls", n),
	}
}

func (p *Pipeline) runIndex(b *build) StepResult {
	logging.Info().Msg("step 6/7: building search index")
	b.docs = search.BuildIndex(b.posts, content.AuthorsByID(b.set.Authors))
	return StepResult{
		Name:    "Index",
		Summary: fmt.Sprintf("Indexed %d posts", len(b.docs)),
	}
}

func (p *Pipeline) runStore(ctx context.Context, idx *database.Index, polls int, elapsed time.Duration) StepResult {
	logging.Info().Str("index", p.cfg.IndexPath()).Msg("step 7/7: storing index")

	doc := FeedIndex{Posts: idx.Posts, Authors: idx.Authors, Works: idx.Works}
	if err := content.WriteJSON(p.cfg.IndexPath(), doc); err != nil {
		return StepResult{Name: "Store", Err: err}
	}

	if p.db == nil {
		return StepResult{Name: "Store", Summary: "Wrote " + p.cfg.IndexPath()}
	}
	if err := p.db.ReplaceIndex(ctx, idx); err != nil {
		return StepResult{Name: "Store", Err: err}
	}
	report := database.Report{
		ContentDir:  p.cfg.Content.Dir,
		WorkCount:   len(idx.Works),
		PostCount:   len(idx.Posts),
		AuthorCount: len(idx.Authors),
		PollCount:   polls,
		DurationMS:  elapsed.Milliseconds(),
	}
	if _, err := p.db.InsertReport(ctx, report); err != nil {
		return StepResult{Name: "Store", Err: err}
	}
	return StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Stored %d posts in %s and wrote %s", len(idx.Posts), p.db.Path(), p.cfg.IndexPath()),
	}
}
