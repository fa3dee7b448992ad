package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultFeedURL is the public Xcode release feed.
	DefaultFeedURL = "https://xcodereleases.com/data.json"

	// DefaultInstallDir is where installed bundles are placed.
	DefaultInstallDir = "/Applications"

	// DefaultCacheTTL is how long a cached catalog snapshot stays fresh.
	DefaultCacheTTL = 24 * time.Hour
)

// Config holds the application configuration.
type Config struct {
	InstallDir   string       `json:"install_dir"`   // Where Xcode bundles are installed
	SearchPaths  []string     `json:"search_paths"`  // Extra directories to scan for installed bundles
	FeedURL      string       `json:"feed_url"`      // Release feed endpoint
	CacheTTL     Duration     `json:"cache_ttl"`     // Catalog cache freshness window
	UpdateConfig UpdateConfig `json:"update_config"` // Self-update configuration

	configPath string
}

// UpdateConfig holds settings for the self-update feature.
type UpdateConfig struct {
	Enabled     bool      `json:"enabled"`      // Master toggle for self-update functionality
	AutoCheck   bool      `json:"auto_check"`   // Check for updates on startup
	LastCheck   time.Time `json:"last_check"`   // Last time an update check was performed
	SkipVersion string    `json:"skip_version"` // Version the user chose to skip
}

// Duration marshals as a Go duration string ("24h").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		InstallDir:  DefaultInstallDir,
		SearchPaths: make([]string, 0),
		FeedURL:     DefaultFeedURL,
		CacheTTL:    Duration(DefaultCacheTTL),
		UpdateConfig: UpdateConfig{
			Enabled:   true,
			AutoCheck: true,
		},
	}
}

// Load loads the configuration from the user's config directory. Loading is
// best-effort: a missing file yields defaults, and callers treat a load
// error as non-fatal by falling back to Default().
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Sanitize search paths: drop empties and duplicates.
	cleaned := make([]string, 0, len(cfg.SearchPaths))
	seen := make(map[string]bool)
	for _, p := range cfg.SearchPaths {
		p = filepath.Clean(strings.TrimSpace(p))
		if p == "" || p == "." {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}
	cfg.SearchPaths = cleaned

	if cfg.InstallDir == "" {
		cfg.InstallDir = DefaultInstallDir
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = Duration(DefaultCacheTTL)
	}

	cfg.configPath = path
	return cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	dir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// Dir returns the directory holding the config file, also used for the
// catalog cache.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return filepath.Dir(configPath())
	}
	return filepath.Dir(c.configPath)
}

// configPath returns the path to the configuration file, following the XDG
// Base Directory specification.
func configPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "xcv", "xcv.json")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "xcv", "xcv.json")
}
