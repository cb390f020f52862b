// Package server exposes the built index as a read-only JSON API: the
// paginated feed, single posts with their poll results, search and author
// pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/database"
	"github.com/TobiSchelling/folio/internal/feed"
	"github.com/TobiSchelling/folio/internal/logging"
	"github.com/TobiSchelling/folio/internal/poll"
	"github.com/TobiSchelling/folio/internal/search"
)

const maxPages = 10

// Options tune how the feed is presented.
type Options struct {
	// Session seeds poll visibility and results. One session per process.
	Session poll.Session
	// ShowChance is the share of posts whose poll is shown.
	ShowChance float64
	// Rand drives the feed rotation; nil uses the ambient source.
	Rand func() float64
	// AllowedOrigins enables CORS on the API for these origins.
	AllowedOrigins []string
	// RateLimit caps API requests per client IP per minute. Zero disables it.
	RateLimit int
}

// Server serves an immutable snapshot of the index.
type Server struct {
	idx     *database.Index
	posts   map[string]int
	authors map[string]content.Author
	opts    Options
	router  chi.Router
	metrics *metrics
}

// New creates a server over idx. idx is not modified and must not be
// modified by the caller afterwards.
func New(idx *database.Index, opts Options) *Server {
	posts := make(map[string]int, len(idx.Posts))
	for i, p := range idx.Posts {
		if _, ok := posts[p.ID]; !ok {
			posts[p.ID] = i
		}
	}

	s := &Server{
		idx:     idx,
		posts:   posts,
		authors: content.AuthorsByID(idx.Authors),
		opts:    opts,
		metrics: newMetrics(len(idx.Posts)),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.metrics.middleware)
		if len(s.opts.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
		}
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Get("/feed", s.handleFeed)
		r.Get("/posts/{id}", s.handlePost)
		r.Get("/posts/{id}/poll", s.handlePoll)
		r.Get("/search", s.handleSearch)
		r.Get("/authors/{id}", s.handleAuthor)
	})

	s.router = r
}

// PostView is a post as the API presents it.
type PostView struct {
	content.Post
	Preview     string          `json:"preview"`
	Attribution string          `json:"attribution,omitempty"`
	Author      *content.Author `json:"author,omitempty"`
	ShowPoll    bool            `json:"show_poll"`
}

// EntryView is one feed slot.
type EntryView struct {
	Key  string   `json:"key"`
	Post PostView `json:"post"`
}

// PollView is a poll with its simulated results.
type PollView struct {
	PostID  string       `json:"post_id"`
	Poll    content.Poll `json:"poll"`
	Results poll.Result  `json:"results"`
}

func (s *Server) view(p content.Post) PostView {
	v := PostView{
		Post:     p,
		Preview:  content.Preview(p.HTML(), content.DefaultPreviewWords),
		ShowPoll: p.Poll != nil && s.opts.Session.ShouldRender(p.ID, s.opts.ShowChance),
	}
	if p.Work != nil {
		v.Attribution = p.Work.Attribution()
	}
	if a, ok := s.authors[p.AuthorID]; ok {
		v.Author = &a
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"posts":  len(s.idx.Posts),
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	pages := 1
	if raw := r.URL.Query().Get("pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPages {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("pages must be between 1 and %d", maxPages))
			return
		}
		pages = n
	}

	entries := feed.NewPager(s.idx.Posts, s.opts.Rand).Pages(pages)
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = EntryView{Key: e.Key, Post: s.view(e.Post)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":   pages,
		"entries": views,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	p, ok := s.post(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, s.view(p))
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	p, ok := s.post(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if p.Poll == nil {
		writeError(w, http.StatusNotFound, "post has no poll")
		return
	}
	writeJSON(w, http.StatusOK, PollView{
		PostID:  p.ID,
		Poll:    *p.Poll,
		Results: s.opts.Session.Results(p.ID, *p.Poll),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	ids := search.Match(s.idx.Documents, q)
	results := make([]PostView, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.post(id); ok {
			results = append(results, s.view(p))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   search.Normalize(q),
		"results": results,
	})
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.authors[id]
	if !ok {
		writeError(w, http.StatusNotFound, "author not found")
		return
	}
	posts := []PostView{}
	for _, p := range s.idx.Posts {
		if p.AuthorID == id {
			posts = append(posts, s.view(p))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"author": a,
		"posts":  posts,
	})
}

func (s *Server) post(id string) (content.Post, bool) {
	i, ok := s.posts[id]
	if !ok {
		return content.Post{}, false
	}
	return s.idx.Posts[i], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve loads the stored index and serves it on 127.0.0.1:port until ctx is
// cancelled.
func Serve(ctx context.Context, db *database.DB, port int, opts Options) error {
	idx, err := db.LoadIndex(ctx)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           New(idx, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", "http://"+srv.Addr).Int("posts", len(idx.Posts)).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
