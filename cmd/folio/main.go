package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/folio/internal/collect"
	"github.com/TobiSchelling/folio/internal/config"
	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/database"
	"github.com/TobiSchelling/folio/internal/feed"
	"github.com/TobiSchelling/folio/internal/fetch"
	"github.com/TobiSchelling/folio/internal/logging"
	"github.com/TobiSchelling/folio/internal/pipeline"
	"github.com/TobiSchelling/folio/internal/poll"
	"github.com/TobiSchelling/folio/internal/search"
	"github.com/TobiSchelling/folio/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "folio",
	Short:   "Deterministic feed of math excerpts",
	Long:    "folio builds a feed of short excerpts with simulated engagement, quiz polls and normalized work popularity.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format})
		logging.Debug().Str("config", path).Msg("loaded config")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(pollsCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("folio", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/folio/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point content.dir at your posts and to configure feeds.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and build status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		stats, err := db.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		last, err := db.GetLastReport(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Content: %s\n", cfg.Content.Dir)
		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Index:")
		fmt.Printf("  Posts: %d (%d images)\n", stats.Posts, stats.ImagePosts)
		fmt.Printf("  Works: %d\n", stats.Works)
		fmt.Printf("  Authors: %d\n", stats.Authors)
		fmt.Printf("  Search documents: %d\n", stats.Documents)
		fmt.Println("\nBuilds:")
		fmt.Printf("  Total: %d\n", stats.Builds)
		if last != nil && last.BuiltAt != nil {
			fmt.Printf("  Last: %s (%d posts, %dms)\n", *last.BuiltAt, last.PostCount, last.DurationMS)
		}
		return nil
	},
}

// --- collect command ---

var noFetch bool

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect posts from configured feeds into the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Sources.Feeds) == 0 {
			fmt.Println("No feeds configured.")
			return nil
		}

		var fetcher *fetch.Fetcher
		if !noFetch {
			fetcher = fetch.New(cfg.Fetch.Timeout())
		}

		fmt.Println("Collecting posts from feeds...")
		result, err := collect.NewCollector(cfg, fetcher).Collect(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New posts: %d\n", result.NewPosts)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		if result.Failed > 0 {
			fmt.Printf("  Feeds failed: %d\n", result.Failed)
		}
		if result.Fetch != nil {
			fmt.Printf("  Bodies fetched: %d (%d failed)\n", result.Fetch.Fetched, result.Fetch.Failed)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nPosts by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Do not fetch bodies for items without text")
}

// --- build command ---

var (
	dryRun     bool
	regenerate bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the index: load -> normalize -> metrics -> polls -> validate -> index -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if regenerate {
			cfg.Polls.Regenerate = true
		}
		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(cmd.Context())
		} else {
			result = pipe.Run(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if err := result.Err(); err != nil {
			return err
		}
		if !dryRun {
			fmt.Println("\nBuild complete! Run 'folio serve' to browse the feed.")
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	buildCmd.Flags().BoolVar(&regenerate, "regenerate-polls", false, "Regenerate polls even where one exists")
}

// --- polls command ---

var pollsCmd = &cobra.Command{
	Use:   "polls",
	Short: "Manage polls in the content files",
}

var pollsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Write generated polls into the post files",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := pipeline.AddPolls(cfg.Content.Dir, regenerate || cfg.Polls.Regenerate)
		if err != nil {
			return fmt.Errorf("adding polls: %w", err)
		}
		fmt.Printf("Added polls to %d posts in %d files.\n", r.Posts, r.Files)
		return nil
	},
}

var pollsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the poll of every post",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := pipeline.ValidatePollFiles(cfg.Content.Dir)
		if err != nil {
			fmt.Println("Poll validation failed.")
			return err
		}
		fmt.Printf("Validated polls for %d posts across %d files.\n", r.Posts, r.Files)
		return nil
	},
}

func init() {
	pollsAddCmd.Flags().BoolVar(&regenerate, "regenerate", false, "Replace existing polls")
	pollsCmd.AddCommand(pollsAddCmd)
	pollsCmd.AddCommand(pollsValidateCmd)
}

// --- feed command ---

var feedPages int

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the feed as a reader would page through it",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}
		if len(idx.Posts) == 0 {
			fmt.Println("The index is empty. Run 'folio build' first.")
			return nil
		}

		session := poll.NewSession()
		for _, e := range feed.NewPager(idx.Posts, nil).Pages(feedPages) {
			fmt.Printf("%-28s %s\n", e.Key, content.Preview(e.Post.HTML(), content.DefaultPreviewWords))
			if e.Post.Poll != nil && session.ShouldRender(e.Post.ID, cfg.Polls.ShowChance) {
				r := session.Results(e.Post.ID, *e.Post.Poll)
				fmt.Printf("%-28s poll: %s\n", "", e.Post.Poll.Question)
				for i, opt := range e.Post.Poll.Options {
					fmt.Printf("%-28s   %-20s %5.1f%%\n", "", opt, r.Percentages[i])
				}
			}
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVarP(&feedPages, "pages", "n", 1, "Number of feed passes to print")
}

// --- search command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search posts by text, tags, work title and author",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		ids := search.Match(idx.Documents, query)
		if len(ids) == 0 {
			fmt.Printf("No posts match %q.\n", search.Normalize(query))
			return nil
		}

		posts := make(map[string]content.Post, len(idx.Posts))
		for _, p := range idx.Posts {
			if _, ok := posts[p.ID]; !ok {
				posts[p.ID] = p
			}
		}
		fmt.Printf("%d posts match %q:\n\n", len(ids), search.Normalize(query))
		for _, id := range ids {
			fmt.Printf("  %-24s %s\n", id, content.Preview(posts[id].HTML(), content.DefaultPreviewWords))
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, port, server.Options{
			Session:        poll.NewSession(),
			ShowChance:     cfg.Polls.ShowChance,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RateLimit:      cfg.Server.RateLimit,
		})
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DBPath())
}

func loadIndex(ctx context.Context) (*database.Index, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.LoadIndex(ctx)
}
