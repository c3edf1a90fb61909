package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir     string `toml:"state_dir"`
	QueueDir     string `toml:"queue_dir"`
	LogDir       string `toml:"log_dir"`
	ThumbnailDir string `toml:"thumbnail_dir"`
}

// WordPress contains configuration for the publishing site.
type WordPress struct {
	URL                      string   `toml:"url"`
	User                     string   `toml:"user"`
	AppPassword              string   `toml:"app_password"`
	PostStatus               string   `toml:"post_status"`
	Categories               []string `toml:"categories"`
	Tags                     []string `toml:"tags"`
	AllowPostDeletion        bool     `toml:"allow_post_deletion"`
	StrictResolutionMatching bool     `toml:"strict_resolution_matching"`
	RequestTimeout           int      `toml:"request_timeout"`
	RequestsPerSecond        float64  `toml:"requests_per_second"`
}

// Metadata contains configuration for catalog lookups.
type Metadata struct {
	TMDBAPIKey               string  `toml:"tmdb_api_key"`
	TMDBBaseURL              string  `toml:"tmdb_base_url"`
	TMDBImageBaseURL         string  `toml:"tmdb_image_base_url"`
	TMDBLanguage             string  `toml:"tmdb_language"`
	OMDBAPIKey               string  `toml:"omdb_api_key"`
	OMDBBaseURL              string  `toml:"omdb_base_url"`
	EnableOMDBFallback       bool    `toml:"enable_omdb_fallback"`
	EnableAniList            bool    `toml:"enable_anilist"`
	AniListURL               string  `toml:"anilist_url"`
	RequestsPerSecond        float64 `toml:"requests_per_second"`
	RequestTimeout           int     `toml:"request_timeout"`
	SkipLookupIfUnrecognized bool    `toml:"skip_lookup_if_unrecognized"`
}

// Posting contains configuration for readiness and post assembly.
type Posting struct {
	RequireAllPrimaryHosts bool   `toml:"require_all_primary_hosts"`
	IncludeThumbnails      bool   `toml:"include_thumbnails"`
	PreferredImage         string `toml:"preferred_image"`
	MaxImageBytes          int64  `toml:"max_image_bytes"`
}

// Hosts points at the JSON host table shared with other tooling.
type Hosts struct {
	ConfigPath string `toml:"config_path"`
}

// Locking contains bounded-wait settings for advisory file locks.
type Locking struct {
	Attempts         int `toml:"attempts"`
	InitialBackoffMS int `toml:"initial_backoff_ms"`
}

// Retry contains backoff settings for transient remote failures.
type Retry struct {
	Attempts       int     `toml:"attempts"`
	InitialDelayMS int     `toml:"initial_delay_ms"`
	Factor         float64 `toml:"factor"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	Merged         bool   `toml:"merged"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for the uploader.
//
// Configuration sections by subsystem:
//   - Paths: state, queue, log, and thumbnail directories
//   - WordPress: site credentials and post defaults
//   - Metadata: TMDb, OMDb, and AniList lookups
//   - Posting: readiness gate and thumbnail handling
//   - Templates: per media kind post bodies
//   - Hosts: location of the host table
//   - Locking / Retry: bounded waits for files and remote calls
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths             `toml:"paths"`
	WordPress     WordPress         `toml:"wordpress"`
	Metadata      Metadata          `toml:"metadata"`
	Posting       Posting           `toml:"posting"`
	Templates     map[string]string `toml:"templates"`
	Hosts         Hosts             `toml:"hosts"`
	Locking       Locking           `toml:"locking"`
	Retry         Retry             `toml:"retry"`
	Notifications Notifications     `toml:"notifications"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads a .env file next to the config, if present. Variables
// already set in the environment win.
func loadDotEnv(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load env file %q: %w", envPath, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autouploader.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, queue, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.QueueDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AggregatePath is the JSON file holding partial host links per release.
func (c *Config) AggregatePath() string {
	return filepath.Join(c.Paths.StateDir, "pending_links.json")
}

// LedgerPath is the JSON file mapping releases to published post ids.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "posted_items.json")
}

// HistoryPath is the SQLite audit database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// HostConfigPath returns the configured host table location.
func (c *Config) HostConfigPath() string {
	if strings.TrimSpace(c.Hosts.ConfigPath) != "" {
		return c.Hosts.ConfigPath
	}
	return filepath.Join(c.Paths.StateDir, "host_config.json")
}

// LockBackoff returns the initial wait between lock attempts.
func (c *Config) LockBackoff() time.Duration {
	return time.Duration(c.Locking.InitialBackoffMS) * time.Millisecond
}

// RetryDelay returns the initial wait between remote call attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.InitialDelayMS) * time.Millisecond
}

// WordPressTimeout returns the per-request timeout for site calls.
func (c *Config) WordPressTimeout() time.Duration {
	return time.Duration(c.WordPress.RequestTimeout) * time.Second
}

// MetadataTimeout returns the per-request timeout for catalog calls.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.Metadata.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
