package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/folio/internal/poll"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Content Content `yaml:"content"`
	Output  Output  `yaml:"output"`
	Polls   Polls   `yaml:"polls"`
	Sources Sources `yaml:"sources"`
	Fetch   Fetch   `yaml:"fetch"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Content points at the directory holding posts/, images/, authors/ and works/.
type Content struct {
	Dir string `yaml:"dir"`
}

type Output struct {
	DataDir   string `yaml:"data_dir"`
	IndexFile string `yaml:"index_file"`
}

type Polls struct {
	ShowChance float64 `yaml:"show_chance"`
	Regenerate bool    `yaml:"regenerate"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

// Feed is an RSS/Atom source whose items become text posts.
type Feed struct {
	URL      string   `yaml:"url"`
	Name     string   `yaml:"name"`
	WorkID   string   `yaml:"work_id"`
	AuthorID string   `yaml:"author_id"`
	Tags     []string `yaml:"tags"`
}

type Fetch struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the per-request fetch timeout.
func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

type Server struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for folio.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "folio")
}

// DataDir returns the XDG data directory for folio.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "folio")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/folio/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'folio init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Content: Content{Dir: "content"},
		Output:  Output{IndexFile: "feed_index.json"},
		Polls:   Polls{ShowChance: poll.DefaultShowChance},
		Fetch:   Fetch{TimeoutSeconds: 30},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Polls.ShowChance < 0 || cfg.Polls.ShowChance > 1 {
		return nil, fmt.Errorf("polls.show_chance must be within [0,1], got %v", cfg.Polls.ShowChance)
	}
	if cfg.Server.RateLimit < 0 {
		return nil, fmt.Errorf("server.rate_limit must not be negative, got %d", cfg.Server.RateLimit)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath is the SQLite file holding the built index.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "folio.db")
}

// IndexPath is where the build writes the JSON feed index. A relative
// index_file is placed inside the data directory.
func (c *Config) IndexPath() string {
	if filepath.IsAbs(c.Output.IndexFile) {
		return c.Output.IndexFile
	}
	return filepath.Join(c.GetDataDir(), c.Output.IndexFile)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
